package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"slotwatch/internal/booking/bookingtest"
	"slotwatch/internal/browser"
	"slotwatch/internal/watch"

	"github.com/stretchr/testify/require"
)

type smsLog struct {
	mutex sync.Mutex
	to    []string
}

func (l *smsLog) count() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.to)
}

func smsGateway(t testing.TB) (*httptest.Server, *smsLog) {
	log := &smsLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		log.mutex.Lock()
		log.to = append(log.to, r.PostForm.Get("to"))
		log.mutex.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"message-count": "1",
			"messages": []map[string]string{
				{"to": r.PostForm.Get("to"), "message-id": "0A0000000123ABCD1", "status": "0"},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server, log
}

// writeConfig points a config at `site` and returns its path and the path of
// the state file.
func writeConfig(t testing.TB, site *bookingtest.Site, gatewayUrl string) (string, string) {
	server := site.Start()
	t.Cleanup(server.Close)

	dir := t.TempDir()
	statePath := filepath.Join(dir, "last-earliest.txt")
	config := map[string]any{
		"entry_url":        server.URL + "/login",
		"licence_number":   site.LicenceNumber,
		"reference_number": site.ReferenceNumber,
		"nexmo": map[string]any{
			"api_key":    "key",
			"api_secret": "secret",
			"from":       "DVSA",
			"base_url":   gatewayUrl,
		},
		"recipients": []map[string]any{{"channel": "sms", "address": "447700900001"}},
		"state":      map[string]any{"driver": "file", "path": statePath},
	}
	contents, err := json.Marshal(config)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, contents, 0644))
	return path, statePath
}

func runCli(t testing.TB, args ...string) (string, error) {
	out := &bytes.Buffer{}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		*broadcast = false
		*noTable = false
		*schedule = ""
	})
	err := execute(context.Background())
	return out.String(), err
}

func newSite() *bookingtest.Site {
	return &bookingtest.Site{
		LicenceNumber:   "MORGA657054SM9IJ",
		ReferenceNumber: "12345678",
		Bookable:        []string{"2024-06-10", "2024-07-01"},
	}
}

func TestCheck(t *testing.T) {
	gateway, sms := smsGateway(t)
	path, statePath := writeConfig(t, newSite(), gateway.URL)

	out, err := runCli(t, "check", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "1st July 2024")
	require.Equal(t, 1, sms.count())
	stored, err := os.ReadFile(statePath)
	require.NoError(t, err)
	require.Equal(t, "10th June 2024", string(stored))

	out, err = runCli(t, "--config", path, "--no-table")
	require.NoError(t, err)
	require.NotContains(t, out, "1st July 2024")
	require.Equal(t, 1, sms.count())

	_, err = runCli(t, "check", "--config", path, "--broadcast", "--no-table")
	require.NoError(t, err)
	require.Equal(t, 2, sms.count())

	out, err = runCli(t, "state", "show", "--config", path)
	require.NoError(t, err)
	require.Equal(t, "10th June 2024\n", out)
}

func TestCheckFailureReturnsError(t *testing.T) {
	gateway, sms := smsGateway(t)
	site := newSite()
	site.OmitLoginButton = true
	path, statePath := writeConfig(t, site, gateway.URL)
	require.NoError(t, os.WriteFile(statePath, []byte("3rd June 2024"), 0644))

	_, err := runCli(t, "check", "--config", path)
	require.ErrorIs(t, err, browser.ErrElementNotFound)
	var runErr *watch.RunError
	require.True(t, errors.As(err, &runErr))
	require.Equal(t, watch.StageAuthenticate, runErr.Stage)

	require.Zero(t, sms.count())
	stored, err := os.ReadFile(statePath)
	require.NoError(t, err)
	require.Equal(t, "3rd June 2024", string(stored))
}

func TestInvalidConfigReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{entry_url: "http://localhost/login"}`), 0644))

	_, err := runCli(t, "check", "--config", path)
	require.ErrorContains(t, err, "load config")
	require.ErrorContains(t, err, "licence_number is required")
}

func TestWatchInvalidScheduleReturnsError(t *testing.T) {
	gateway, _ := smsGateway(t)
	path, _ := writeConfig(t, newSite(), gateway.URL)

	_, err := runCli(t, "watch", "--config", path, "--schedule", "every now and then")
	require.ErrorContains(t, err, `invalid schedule "every now and then"`)
}

func TestRunOptionsFollowFlags(t *testing.T) {
	t.Cleanup(func() {
		*broadcast = false
		*noTable = false
	})
	require.Equal(t, watch.RunOptions{}, runOptions())

	require.NoError(t, rootCmd.PersistentFlags().Set("broadcast", "true"))
	require.Equal(t, watch.RunOptions{Broadcast: true}, runOptions())

	require.NoError(t, rootCmd.PersistentFlags().Set("no-table", "true"))
	require.Equal(t, watch.RunOptions{Broadcast: true, NoTable: true}, runOptions())
}
