package telemetry

import (
	"fmt"
	"log/slog"
	"os"
)

// InitSlog installs a text handler on stderr as the default slog logger.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SlogAPI implements API using the log/slog package.
type SlogAPI struct {
	// attrs are attached to every record, ex. the run id.
	attrs []any
}

// NewSlogAPI creates a SlogAPI that attaches the given key-value pairs to every report.
func NewSlogAPI(attrs ...any) SlogAPI {
	return SlogAPI{attrs: attrs}
}

func (s SlogAPI) formatParams(out *[]any, params []any) {
	*out = append(*out, s.attrs...)
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

// ReportInfo passes params to slog as they are, they are key-value pairs.
func (s SlogAPI) ReportInfo(message string, params ...any) {
	pairs := append([]any{}, s.attrs...)
	pairs = append(pairs, params...)
	slog.Info(message, pairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	slog.Debug(message, remainingPairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	remainingPairs := []any{"id", id, "n", count}
	remainingPairs = append(remainingPairs, s.attrs...)
	slog.Info("count", remainingPairs...)
}
