package notify

import (
	"context"
	"io"
	"log"
	"testing"

	"slotwatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testSmtp = SmtpConfig{
	Server:       "localhost",
	Port:         1025,
	EmailAddress: "watch@example.com",
	Password:     "default",
}

// startSmtp runs a fake smtp server, received mail is served on port 1080.
func startSmtp(t testing.TB) {
	if testing.Short() {
		t.Skip("needs docker")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(
		context.Background(),
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1080:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		err := smtp.Terminate(context.Background())
		if err != nil {
			t.Log(err)
		}
	})
}

func receivedMail(t testing.TB, n string) string {
	res, err := resty.New().R().Get("http://127.0.0.1:1080/messages/" + n + ".plain")
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode())
	return res.String()
}

func TestEmailSend(t *testing.T) {
	startSmtp(t)

	e := NewEmail(testSmtp, "Earlier test date")
	err := e.Send(context.Background(), "someone@example.com", "Earlier date: 1st June 2024")
	require.NoError(t, err)

	require.Contains(t, receivedMail(t, "1"), "Earlier date: 1st June 2024")
}

func TestBroadcastEmail(t *testing.T) {
	startSmtp(t)

	sms := &fakeSender{}
	rec := &telemetry.Recorder{}
	b := NewBroadcaster(map[Channel]Sender{
		ChannelSMS:   sms,
		ChannelEmail: NewEmail(testSmtp, "Earlier test date"),
	}, rec)

	recipients := []Recipient{
		{Channel: ChannelSMS, Address: "447700900001"},
		{Channel: ChannelEmail, Address: "someone@example.com"},
	}
	results := b.Broadcast(context.Background(), recipients, "Earlier date: 10th June 2024")
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	require.Zero(t, Failed(results))

	require.Equal(t, []string{"447700900001"}, sms.recipients())
	require.Contains(t, receivedMail(t, "1"), "Earlier date: 10th June 2024")
	require.True(t, rec.Has("info", "message sent"))
}
