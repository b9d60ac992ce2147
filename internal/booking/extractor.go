package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwatch/internal/browser"
	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/telemetry"
)

const (
	report_extractor_slots = "extractor.slots"
	report_extractor_slot  = "extractor.slot"
)

// ErrExtraction means the slot calendar could not be read.
var ErrExtraction = errors.New("slot extraction failed")

// Extractor reads bookable dates off the slot calendar.
type Extractor struct {
	tel      telemetry.API
	location *time.Location
}

// NewExtractor returns an extractor that interprets calendar dates in `location`.
func NewExtractor(location *time.Location, tel telemetry.API) Extractor {
	assert.NotNil(location)
	assert.NotNil(tel)
	return Extractor{
		tel:      telemetry.NewScopedAPI("booking", tel),
		location: location,
	}
}

// ExtractSlots returns the bookable dates in calendar order. A calendar with
// no bookable cells gives an empty slice and no error.
func (x Extractor) ExtractSlots(ctx context.Context, page browser.Page) ([]time.Time, error) {
	_, err := page.Find(ctx, calendarTableSelector)
	if err != nil {
		x.tel.ReportBroken(report_extractor_slots, err, page.URL())
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	cells, err := page.FindAll(ctx, bookableSlotSelector+" "+availableDateLinkSelector)
	if err != nil {
		x.tel.ReportBroken(report_extractor_slots, err)
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	dates := make([]time.Time, 0, len(cells))
	for i, cell := range cells {
		raw, ok := cell.Attr(dateAttribute)
		if !ok {
			x.tel.ReportWarning(report_extractor_slot, "missing "+dateAttribute, i)
			continue
		}
		date, err := time.ParseInLocation(DateLayout, raw, x.location)
		if err != nil {
			x.tel.ReportWarning(report_extractor_slot, err, i)
			continue
		}
		dates = append(dates, date)
	}

	x.tel.ReportCount("slots", int64(len(dates)))
	return dates, nil
}
