package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"slotwatch/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type sent struct {
	to   string
	text string
}

type fakeSender struct {
	mutex sync.Mutex
	sent  []sent
	fail  map[string]error
}

func (f *fakeSender) Send(ctx context.Context, to, text string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err, ok := f.fail[to]; ok {
		return err
	}
	f.sent = append(f.sent, sent{to: to, text: text})
	return nil
}

func (f *fakeSender) recipients() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []string
	for _, s := range f.sent {
		out = append(out, s.to)
	}
	return out
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	sms := &fakeSender{fail: map[string]error{"447700900002": errors.New("unreachable")}}
	mail := &fakeSender{}
	rec := &telemetry.Recorder{}

	b := NewBroadcaster(map[Channel]Sender{ChannelSMS: sms, ChannelEmail: mail}, rec)
	recipients := []Recipient{
		{Channel: ChannelSMS, Address: "447700900001"},
		{Channel: ChannelSMS, Address: "447700900002"},
		{Channel: ChannelEmail, Address: "someone@example.com"},
		{Channel: "pigeon", Address: "roof"},
	}
	results := b.Broadcast(context.Background(), recipients, "hello")

	require.Len(t, results, 4)
	for i, r := range results {
		require.Equal(t, recipients[i], r.Recipient)
	}
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, ErrDelivery)
	require.NoError(t, results[2].Err)
	require.ErrorIs(t, results[3].Err, ErrDelivery)
	require.Equal(t, 2, Failed(results))

	require.ElementsMatch(t, []string{"447700900001"}, sms.recipients())
	require.ElementsMatch(t, []string{"someone@example.com"}, mail.recipients())
	require.True(t, rec.Has("warning", report_broadcast_send))
	require.True(t, rec.Has("info", "message sent"))
}

func TestBroadcastNoRecipients(t *testing.T) {
	b := NewBroadcaster(nil, &telemetry.Recorder{})
	require.Empty(t, b.Broadcast(context.Background(), nil, "hello"))
}

type fakeGateway struct {
	from string
}

func (g *fakeGateway) Send(ctx context.Context, from, to, text string) error {
	g.from = from
	return nil
}

func TestSMSUsesFixedSender(t *testing.T) {
	g := &fakeGateway{}
	require.NoError(t, SMS{Gateway: g, From: "slotwatch"}.Send(context.Background(), "447700900001", "hi"))
	require.Equal(t, "slotwatch", g.from)
}

func nexmoServer(t testing.TB, respond func(form map[string]string) (int, any)) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sms/json" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, r.ParseForm())
		form := map[string]string{}
		for key := range r.PostForm {
			form[key] = r.PostForm.Get(key)
		}
		status, body := respond(form)
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNexmoSend(t *testing.T) {
	var received map[string]string
	server := nexmoServer(t, func(form map[string]string) (int, any) {
		received = form
		return http.StatusOK, map[string]any{
			"message-count": "1",
			"messages": []map[string]string{
				{"to": form["to"], "message-id": "0A0000000123ABCD1", "status": "0"},
			},
		}
	})

	nexmo := NewNexmo(NexmoOptions{ApiKey: "key", ApiSecret: "secret", BaseUrl: server.URL}, &telemetry.Recorder{})
	err := nexmo.Send(context.Background(), "slotwatch", "447700900001", "Earlier date: 1st June 2024")
	require.NoError(t, err)

	require.Equal(t, map[string]string{
		"api_key":    "key",
		"api_secret": "secret",
		"from":       "slotwatch",
		"to":         "447700900001",
		"text":       "Earlier date: 1st June 2024",
	}, received)
}

func TestNexmoFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    any
		message string
	}{
		{
			name:   "rejected message",
			status: http.StatusOK,
			body: map[string]any{
				"message-count": "1",
				"messages":      []map[string]string{{"status": "4", "error-text": "Bad Credentials"}},
			},
			message: "Bad Credentials",
		},
		{
			name:    "no messages",
			status:  http.StatusOK,
			body:    map[string]any{"message-count": "0", "messages": []any{}},
			message: "no messages",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    map[string]any{},
			message: "500",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			server := nexmoServer(t, func(map[string]string) (int, any) {
				return test.status, test.body
			})
			nexmo := NewNexmo(NexmoOptions{BaseUrl: server.URL}, &telemetry.Recorder{})
			err := nexmo.Send(context.Background(), "a", "b", "c")
			require.ErrorIs(t, err, ErrDelivery)
			require.True(t, strings.Contains(err.Error(), test.message), err.Error())
		})
	}
}

func TestEmailMessage(t *testing.T) {
	e := NewEmail(SmtpConfig{Server: "smtp.example.com", Port: 587, EmailAddress: "watch@example.com"}, "Earlier test date")
	raw, err := e.message("someone@example.com", "Earlier date: 1st June 2024").Bytes()
	require.NoError(t, err)

	text := string(raw)
	require.Contains(t, text, "watch@example.com")
	require.Contains(t, text, "someone@example.com")
	require.Contains(t, text, "Earlier test date")
	require.Contains(t, text, "Earlier date: 1st June 2024")
}

func TestEmailCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewEmail(SmtpConfig{}, "x").Send(ctx, "someone@example.com", "hi")
	require.ErrorIs(t, err, context.Canceled)
}
