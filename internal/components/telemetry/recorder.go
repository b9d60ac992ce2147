package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// Report is a single call made against a Recorder.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// Recorder is an API that keeps every report in memory, it is meant for
// asserting on telemetry in tests.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) record(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any)  { r.record("broken", id, params) }
func (r *Recorder) ReportWarning(id string, params ...any) { r.record("warning", id, params) }
func (r *Recorder) ReportInfo(msg string, params ...any)   { r.record("info", msg, params) }
func (r *Recorder) ReportDebug(msg string, params ...any)  { r.record("debug", msg, params) }

func (r *Recorder) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

// Reports returns a copy of everything recorded so far.
func (r *Recorder) Reports() []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Has returns true if a report of the given kind has an id containing `id`.
func (r *Recorder) Has(kind, id string) bool {
	for _, rep := range r.Reports() {
		if rep.Kind == kind && strings.Contains(rep.ID, id) {
			return true
		}
	}
	return false
}

func (r *Recorder) String() string {
	var out strings.Builder
	for _, rep := range r.Reports() {
		fmt.Fprintf(&out, "%s %s %v\n", rep.Kind, rep.ID, rep.Params)
	}
	return out.String()
}
