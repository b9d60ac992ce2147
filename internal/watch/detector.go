// Package watch runs a single check of the booking site and decides whether
// recipients should hear about the earliest bookable date.
package watch

import (
	"context"
	"fmt"

	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/telemetry"
	"slotwatch/internal/notify"
	"slotwatch/internal/state"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_detector_read    = "detector.read"
	report_detector_write   = "detector.write"
	report_detector_metrics = "detector.metrics"
)

var watchMeter = telemetry.Meter("slotwatch/watch")

// Message is the static part of the notification text.
type Message struct {
	LoginUrl        string
	LicenceNumber   string
	ReferenceNumber string
}

func (m Message) Text(earliest string) string {
	return fmt.Sprintf(
		"Earlier date: %s Reference Number: %s Licence Number: %s login page: %s",
		earliest, m.ReferenceNumber, m.LicenceNumber, m.LoginUrl,
	)
}

// Notifier is satisfied by notify.Broadcaster.
type Notifier interface {
	Broadcast(ctx context.Context, recipients []notify.Recipient, text string) []notify.Result
}

// Decision records everything Decide did. Failures in here are non-fatal.
type Decision struct {
	Earliest    string
	HasEarliest bool

	Previous      string
	PreviousKnown bool
	ReadErr       error

	Changed  bool
	WriteErr error

	Notified   bool
	Deliveries []notify.Result
}

type Detector struct {
	store      state.Store
	notifier   Notifier
	recipients []notify.Recipient
	message    Message
	tel        telemetry.API

	notifications metric.Int64Counter
}

func NewDetector(
	store state.Store,
	notifier Notifier,
	recipients []notify.Recipient,
	message Message,
	tel telemetry.API,
) Detector {
	assert.NotNil(store)
	assert.NotNil(notifier)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("watch", tel)
	notifications, err := watchMeter.Int64Counter(
		"slotwatch.notifications",
		metric.WithDescription("Notifications submitted, by outcome."),
	)
	if err != nil {
		tel.ReportWarning(report_detector_metrics, err)
	}

	return Detector{
		store:         store,
		notifier:      notifier,
		recipients:    recipients,
		message:       message,
		tel:           tel,
		notifications: notifications,
	}
}

// Decide compares `earliest` with the stored value, stores it if it changed
// and notifies every recipient if it changed or `force` is set. Without an
// earliest date nothing is read, written or sent.
func (d Detector) Decide(ctx context.Context, earliest string, hasEarliest, force bool) Decision {
	decision := Decision{Earliest: earliest, HasEarliest: hasEarliest}
	if !hasEarliest {
		d.tel.ReportInfo("no bookable slots", "broadcast", force)
		return decision
	}

	previous, found, err := d.store.Read(ctx)
	if err != nil {
		// an unreadable value is treated as unknown, which counts as changed
		decision.ReadErr = err
		d.tel.ReportWarning(report_detector_read, err)
	} else {
		decision.Previous = previous
		decision.PreviousKnown = found
	}

	decision.Changed = !decision.PreviousKnown || decision.Previous != earliest
	if decision.Changed {
		d.tel.ReportInfo("earliest date changed", "previous", decision.Previous, "earliest", earliest)
		err = d.store.Write(ctx, earliest)
		if err != nil {
			decision.WriteErr = err
			d.tel.ReportWarning(report_detector_write, err)
		}
	} else {
		d.tel.ReportInfo("earliest date unchanged", "earliest", earliest)
	}

	if !decision.Changed && !force {
		return decision
	}

	decision.Notified = true
	decision.Deliveries = d.notifier.Broadcast(ctx, d.recipients, d.message.Text(earliest))

	failed := notify.Failed(decision.Deliveries)
	if d.notifications != nil {
		d.notifications.Add(ctx, int64(len(decision.Deliveries)-failed), metric.WithAttributes(attribute.String("outcome", "sent")))
		d.notifications.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "failed")))
	}
	d.tel.ReportInfo(
		"broadcast finished",
		"recipients", len(decision.Deliveries),
		"failed", failed,
		"forced", force && !decision.Changed,
	)

	return decision
}
