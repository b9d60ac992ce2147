// Package bookingtest serves a minimal imitation of the booking site's
// change-date workflow for tests.
package bookingtest

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

const sessionCookie = "booking-session"

// Site configures the fake booking site. The zero value serves a working
// workflow with no bookable dates for the empty credentials.
type Site struct {
	LicenceNumber   string
	ReferenceNumber string
	// Bookable dates in `YYYY-MM-DD`, rendered in the given order.
	Bookable []string
	// Unbookable dates are rendered as cells without the bookable class.
	Unbookable []string

	// OmitLoginButton removes the login button from the login page.
	OmitLoginButton bool
	// OmitDateLinks empties the edit-test-date container.
	OmitDateLinks bool
	// OmitCalendar serves the slot page without the calendar table.
	OmitCalendar bool
	// CalendarDelay delays the response of the slot page.
	CalendarDelay time.Duration

	mutex  sync.Mutex
	logins int
}

// Logins returns how many successful logins the site has seen.
func (s *Site) Logins() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.logins
}

// Start serves the site, the login page is at `<server.URL>/login`.
func (s *Site) Start() *httptest.Server {
	return httptest.NewServer(s.Handler())
}

func (s *Site) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.login)
	mux.HandleFunc("/manage", s.requireSession(s.manage))
	mux.HandleFunc("/choose-date", s.requireSession(s.chooseDate))
	mux.HandleFunc("/calendar", s.requireSession(s.calendar))
	return mux
}

func (s *Site) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value != "ok" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

var loginTemplate = template.Must(template.New("login").Parse(`<html><body>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form action="/login" method="post">
	<input type="hidden" name="csrftoken" value="token">
	<input type="text" id="driving-licence-number" name="username">
	<input type="text" id="application-reference-number" name="password">
	{{if not .OmitButton}}<input type="submit" id="booking-login" name="booking-login" value="Continue">{{end}}
</form>
</body></html>`))

func (s *Site) login(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Error      string
		OmitButton bool
	}{OmitButton: s.OmitLoginButton}

	if r.Method == http.MethodPost {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("csrftoken") == "token" &&
			r.PostForm.Get("username") == s.LicenceNumber &&
			r.PostForm.Get("password") == s.ReferenceNumber {
			s.mutex.Lock()
			s.logins++
			s.mutex.Unlock()

			http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "ok", Path: "/"})
			http.Redirect(w, r, "/manage", http.StatusSeeOther)
			return
		}
		data.Error = "Incorrect details"
	}

	w.Header().Set("content-type", "text/html")
	loginTemplate.Execute(w, data)
}

func (s *Site) manage(w http.ResponseWriter, r *http.Request) {
	links := `<a id="date-time-change" href="/choose-date">Change</a>
		<a href="/choose-date?days=3">Find a test in 3 days</a>`
	if s.OmitDateLinks {
		links = ""
	}
	w.Header().Set("content-type", "text/html")
	fmt.Fprintf(w, `<html><body>
		<h1>Your booking</h1>
		<section id="edit-test-date-buttons">%s</section>
	</body></html>`, links)
}

func (s *Site) chooseDate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("testChoice") != "ASAP" {
			http.Error(w, "expected the earliest date choice", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/calendar", http.StatusSeeOther)
		return
	}

	w.Header().Set("content-type", "text/html")
	fmt.Fprint(w, `<html><body>
	<form action="/choose-date" method="post">
		<input type="radio" id="test-choice-earliest" name="testChoice" value="ASAP">
		<input type="radio" id="test-choice-calendar" name="testChoice" value="date" checked>
		<input type="text" id="test-choice-calendar-date" name="preferredTestDate">
		<input type="submit" id="driving-licence-submit" name="drivingLicenceSubmit" value="Find available dates">
	</form>
	</body></html>`)
}

var calendarTemplate = template.Must(template.New("calendar").Parse(`<html><body>
{{if not .OmitCalendar}}
<table class="BookingCalendar-dates">
<tbody class="BookingCalendar-datesBody">
<tr>
{{range .Unbookable}}<td class="BookingCalendar-date BookingCalendar-date--unavailable"><div class="BookingCalendar-content"><a class="BookingCalendar-dateLink" data-date="{{.}}">x</a></div></td>{{end}}
{{range .Bookable}}<td class="BookingCalendar-date BookingCalendar-date--bookable"><div class="BookingCalendar-content"><a href="#" class="BookingCalendar-dateLink" data-date="{{.}}">x</a></div></td>{{end}}
</tr>
</tbody>
</table>
{{end}}
</body></html>`))

func (s *Site) calendar(w http.ResponseWriter, r *http.Request) {
	if s.CalendarDelay > 0 {
		select {
		case <-time.After(s.CalendarDelay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("content-type", "text/html")
	calendarTemplate.Execute(w, s)
}
