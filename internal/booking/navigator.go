package booking

import (
	"context"
	"fmt"

	"slotwatch/internal/browser"
	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/telemetry"
)

const (
	report_navigator_fill_credentials = "navigator.fill-credentials"
	report_navigator_login            = "navigator.login"
	report_navigator_open_calendar    = "navigator.open-calendar"
)

// Credentials identify the booking that is being watched.
type Credentials struct {
	LicenceNumber   string
	ReferenceNumber string
}

type Phase string

const (
	PhaseFillCredentials Phase = "fill-credentials"
	PhaseLogin           Phase = "login"
	PhaseOpenCalendar    Phase = "open-calendar"
)

// NavigationError tags a navigation failure with the phase it happened in.
type NavigationError struct {
	Phase Phase
	Err   error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed during %s: %s", e.Phase, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// Navigator drives a page from the login form to the slot calendar.
type Navigator struct {
	tel telemetry.API
}

func NewNavigator(tel telemetry.API) Navigator {
	assert.NotNil(tel)
	return Navigator{tel: telemetry.NewScopedAPI("booking", tel)}
}

// Navigate runs FillCredentials, Login and OpenSlotCalendar in order, it
// stops at the first failure.
func (n Navigator) Navigate(ctx context.Context, page browser.Page, creds Credentials) error {
	phases := []struct {
		phase Phase
		run   func() error
		done  string
	}{
		{PhaseFillCredentials, func() error { return n.FillCredentials(ctx, page, creds) }, "filled credentials"},
		{PhaseLogin, func() error { return n.Login(ctx, page) }, "logged in"},
		{PhaseOpenCalendar, func() error { return n.OpenSlotCalendar(ctx, page) }, "loaded slot page"},
	}
	for _, p := range phases {
		err := p.run()
		if err != nil {
			return &NavigationError{Phase: p.phase, Err: err}
		}
		n.tel.ReportInfo(p.done, "url", page.URL())
	}
	return nil
}

func (n Navigator) FillCredentials(ctx context.Context, page browser.Page, creds Credentials) error {
	licenceInput, err := page.Find(ctx, licenceNumberInputSelector)
	if err != nil {
		n.tel.ReportBroken(report_navigator_fill_credentials, err)
		return err
	}
	referenceInput, err := page.Find(ctx, referenceNumberInputSelector)
	if err != nil {
		n.tel.ReportBroken(report_navigator_fill_credentials, err)
		return err
	}

	err = licenceInput.Type(ctx, creds.LicenceNumber)
	if err != nil {
		return fmt.Errorf("type licence number: %w", err)
	}
	err = referenceInput.Type(ctx, creds.ReferenceNumber)
	if err != nil {
		return fmt.Errorf("type reference number: %w", err)
	}
	return nil
}

func (n Navigator) Login(ctx context.Context, page browser.Page) error {
	submit, err := page.Find(ctx, loginButtonSelector)
	if err != nil {
		n.tel.ReportBroken(report_navigator_login, err)
		return err
	}
	err = submit.Click(ctx)
	if err != nil {
		return fmt.Errorf("click login: %w", err)
	}
	err = page.WaitForNavigation(ctx)
	if err != nil {
		n.tel.ReportBroken(report_navigator_login, err)
		return err
	}
	return nil
}

func (n Navigator) OpenSlotCalendar(ctx context.Context, page browser.Page) error {
	container, err := page.Find(ctx, editTestDateSelector)
	if err != nil {
		n.tel.ReportBroken(report_navigator_open_calendar, err)
		return err
	}
	// the container holds "change test day" and "find test in N days"
	links, err := container.FindAll(ctx, "a")
	if err != nil {
		return err
	}
	if len(links) == 0 {
		err := fmt.Errorf("%w: %s a", browser.ErrElementNotFound, editTestDateSelector)
		n.tel.ReportBroken(report_navigator_open_calendar, err)
		return err
	}
	if len(links) != 2 {
		n.tel.ReportWarning(report_navigator_open_calendar, "unexpected number of date links", len(links))
	}

	changeTestDay := links[0]
	err = changeTestDay.Click(ctx)
	if err != nil {
		return fmt.Errorf("click change test day: %w", err)
	}
	err = page.WaitForNavigation(ctx)
	if err != nil {
		n.tel.ReportBroken(report_navigator_open_calendar, err)
		return err
	}

	submit, err := page.Find(ctx, testDateChoiceSubmitSelector)
	if err != nil {
		n.tel.ReportBroken(report_navigator_open_calendar, err)
		return err
	}
	earliest, err := page.Find(ctx, testDateChoiceSelector)
	if err != nil {
		n.tel.ReportBroken(report_navigator_open_calendar, err)
		return err
	}

	err = earliest.Click(ctx)
	if err != nil {
		return fmt.Errorf("choose earliest date: %w", err)
	}
	err = submit.Click(ctx)
	if err != nil {
		return fmt.Errorf("submit date choice: %w", err)
	}
	err = page.WaitForNavigation(ctx)
	if err != nil {
		n.tel.ReportBroken(report_navigator_open_calendar, err)
		return err
	}
	return nil
}
