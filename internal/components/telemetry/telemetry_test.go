package telemetry

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("booking", rec)

	scoped.ReportBroken("navigator.login", errors.New("boom"))
	scoped.ReportWarning("extractor.slot", "bad date")
	scoped.ReportCount("slots", 3)

	reports := rec.Reports()
	require.Len(t, reports, 3)
	require.Equal(t, "booking: navigator.login", reports[0].ID)
	require.Equal(t, "broken", reports[0].Kind)
	require.Equal(t, "booking: extractor.slot", reports[1].ID)
	require.Equal(t, []any{int64(3)}, reports[2].Params)

	require.True(t, rec.Has("warning", "extractor"))
	require.False(t, rec.Has("broken", "extractor"))
}

func captureSlog(t *testing.T) *bytes.Buffer {
	out := &bytes.Buffer{}
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return out
}

func TestSlogInfoKeepsPairs(t *testing.T) {
	out := captureSlog(t)
	api := NewScopedAPI("watch", NewSlogAPI("run", "abc123"))

	api.ReportInfo("earliest date changed", "previous", "3rd June 2024", "earliest", "1st June 2024")
	api.ReportWarning("detector.write", "disk full")

	logged := out.String()
	require.Contains(t, logged, `msg="watch: earliest date changed"`)
	require.Contains(t, logged, "run=abc123")
	require.Contains(t, logged, `previous="3rd June 2024"`)
	require.Contains(t, logged, `earliest="1st June 2024"`)
	require.NotContains(t, logged, `params.0="3rd June 2024"`)
	// other reports keep positional params
	require.Contains(t, logged, `params.0="disk full"`)
}
