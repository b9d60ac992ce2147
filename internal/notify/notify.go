// Package notify broadcasts a message to every configured recipient.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/telemetry"
)

const (
	report_broadcast_send = "broadcast.send"
)

// ErrDelivery means a message could not be handed to a recipient.
var ErrDelivery = errors.New("delivery failed")

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

type Recipient struct {
	Channel Channel `json:"channel"`
	Address string  `json:"address"`
}

func (r Recipient) String() string {
	return fmt.Sprintf("%s:%s", r.Channel, r.Address)
}

// Sender delivers a text to a single address.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Gateway is an SMS gateway, messages are sent from a given number.
type Gateway interface {
	Send(ctx context.Context, from, to, text string) error
}

// SMS sends through a Gateway from a fixed number.
type SMS struct {
	Gateway Gateway
	From    string
}

func (s SMS) Send(ctx context.Context, to, text string) error {
	return s.Gateway.Send(ctx, s.From, to, text)
}

// Result is the outcome of sending to one recipient.
type Result struct {
	Recipient Recipient
	Err       error
}

type Broadcaster struct {
	senders map[Channel]Sender
	tel     telemetry.API
}

func NewBroadcaster(senders map[Channel]Sender, tel telemetry.API) Broadcaster {
	assert.NotNil(tel)
	return Broadcaster{
		senders: senders,
		tel:     telemetry.NewScopedAPI("notify", tel),
	}
}

// Broadcast sends `text` to every recipient concurrently. A failure for one
// recipient does not affect the others, results are in recipient order.
func (b Broadcaster) Broadcast(ctx context.Context, recipients []Recipient, text string) []Result {
	results := make([]Result, len(recipients))
	wg := sync.WaitGroup{}

	for i, recipient := range recipients {
		results[i].Recipient = recipient

		sender, ok := b.senders[recipient.Channel]
		if !ok {
			results[i].Err = fmt.Errorf("%w: no sender for channel %q", ErrDelivery, recipient.Channel)
			b.tel.ReportWarning(report_broadcast_send, results[i].Err, recipient.String())
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			err := sender.Send(ctx, recipient.Address, text)
			if err != nil {
				if !errors.Is(err, ErrDelivery) {
					err = fmt.Errorf("%w: %w", ErrDelivery, err)
				}
				results[i].Err = err
				b.tel.ReportWarning(report_broadcast_send, err, recipient.String())
				return
			}
			b.tel.ReportInfo("message sent", "recipient", recipient.String())
		}()
	}

	wg.Wait()
	return results
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
