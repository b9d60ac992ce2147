package notify

import (
	"context"
	"fmt"

	"slotwatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const defaultNexmoUrl = "https://rest.nexmo.com"

type NexmoOptions struct {
	ApiKey    string
	ApiSecret string
	// BaseUrl defaults to https://rest.nexmo.com
	BaseUrl string
}

// Nexmo sends SMS through the Nexmo (Vonage) SMS API.
type Nexmo struct {
	http *resty.Client
	opts NexmoOptions
}

func NewNexmo(opts NexmoOptions, tel telemetry.API) Nexmo {
	if opts.BaseUrl == "" {
		opts.BaseUrl = defaultNexmoUrl
	}
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	telemetry.InstrumentResty(client, telemetry.NewScopedAPI("nexmo", tel))
	return Nexmo{http: client, opts: opts}
}

type nexmoMessage struct {
	To        string `json:"to"`
	MessageId string `json:"message-id"`
	Status    string `json:"status"`
	ErrorText string `json:"error-text"`
}

type nexmoResponse struct {
	MessageCount string         `json:"message-count"`
	Messages     []nexmoMessage `json:"messages"`
}

func (n Nexmo) Send(ctx context.Context, from, to, text string) error {
	var body nexmoResponse
	res, err := n.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_key":    n.opts.ApiKey,
			"api_secret": n.opts.ApiSecret,
			"from":       from,
			"to":         to,
			"text":       text,
		}).
		SetResult(&body).
		Post("/sms/json")
	if err != nil {
		return fmt.Errorf("%w: nexmo request: %w", ErrDelivery, err)
	}
	if res.IsError() {
		return fmt.Errorf("%w: nexmo responded %s", ErrDelivery, res.Status())
	}
	if len(body.Messages) == 0 {
		return fmt.Errorf("%w: nexmo accepted no messages", ErrDelivery)
	}
	for _, m := range body.Messages {
		if m.Status != "0" {
			return fmt.Errorf("%w: nexmo status %s: %s", ErrDelivery, m.Status, m.ErrorText)
		}
	}
	return nil
}
