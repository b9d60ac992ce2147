package booking

// Authentication page.
const (
	loginButtonSelector          = `input[id="booking-login"]`
	licenceNumberInputSelector   = `input[id="driving-licence-number"]`
	referenceNumberInputSelector = `input[id="application-reference-number"]`
)

// Edit booking page.
const (
	editTestDateSelector         = `#edit-test-date-buttons`
	testDateChoiceSubmitSelector = `#driving-licence-submit`
	testDateChoiceSelector       = `input[id="test-choice-earliest"]`
)

// Slot page.
const (
	calendarTableSelector     = `.BookingCalendar-datesBody`
	bookableSlotSelector      = `.BookingCalendar-date--bookable`
	availableDateLinkSelector = `.BookingCalendar-dateLink`

	dateAttribute = "data-date"
	// DateLayout is the layout of the calendar's data-date attribute.
	DateLayout = "2006-01-02"
)
