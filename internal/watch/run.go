package watch

import (
	"context"
	"fmt"
	"io"
	"time"

	"slotwatch/internal/booking"
	"slotwatch/internal/browser"
	"slotwatch/internal/calendar"
	"slotwatch/internal/components/assert"
	"slotwatch/internal/components/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_run_render = "run.render"
	report_run_close  = "run.close"
	report_run_stage  = "run.stage"
)

var watchTracer = telemetry.Tracer("slotwatch/watch")

type Stage string

const (
	StageLaunch       Stage = "launch"
	StageAuthenticate Stage = "authenticate"
	StageExtract      Stage = "extract"
)

// RunError is a failure that aborted the run before a decision was made.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run aborted during %s: %s", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// OpenBrowser starts a browser session, the run closes it.
type OpenBrowser func(ctx context.Context) (browser.Browser, error)

type RunnerOptions struct {
	EntryUrl    string
	Credentials booking.Credentials
	Location    *time.Location
	// Output receives the slot table, nil discards it.
	Output io.Writer
}

type RunOptions struct {
	Broadcast bool
	NoTable   bool
}

type Result struct {
	Calendar calendar.Calendar
	Decision Decision
}

type Runner struct {
	open      OpenBrowser
	opts      RunnerOptions
	navigator booking.Navigator
	extractor booking.Extractor
	detector  Detector
	tel       telemetry.API

	slots metric.Int64Histogram
}

func NewRunner(open OpenBrowser, opts RunnerOptions, detector Detector, tel telemetry.API) Runner {
	assert.NotNil(open)
	assert.NotEmptyStr(opts.EntryUrl)
	assert.NotNil(tel)

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	slots, err := watchMeter.Int64Histogram(
		"slotwatch.slots",
		metric.WithDescription("Bookable slots found per run."),
	)
	if err != nil {
		tel.ReportWarning(report_detector_metrics, err)
	}

	return Runner{
		open:      open,
		opts:      opts,
		navigator: booking.NewNavigator(tel),
		extractor: booking.NewExtractor(opts.Location, tel),
		detector:  detector,
		tel:       telemetry.NewScopedAPI("watch", tel),
		slots:     slots,
	}
}

func (r Runner) fail(span trace.Span, stage Stage, err error) *RunError {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.tel.ReportBroken(report_run_stage, err, string(stage))
	return &RunError{Stage: stage, Err: err}
}

// Run checks the site once. The browser session is closed on every path.
func (r Runner) Run(ctx context.Context, opts RunOptions) (Result, error) {
	ctx, span := watchTracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("broadcast", opts.Broadcast),
		attribute.Bool("no_table", opts.NoTable),
	)

	r.tel.ReportInfo(
		"starting check",
		"licence", r.opts.Credentials.LicenceNumber,
		"reference", r.opts.Credentials.ReferenceNumber,
	)

	b, err := r.open(ctx)
	if err != nil {
		return Result{}, r.fail(span, StageLaunch, err)
	}
	defer func() {
		closeErr := b.Close()
		if closeErr != nil {
			r.tel.ReportWarning(report_run_close, closeErr)
		}
	}()

	page, err := b.NewPage(ctx)
	if err != nil {
		return Result{}, r.fail(span, StageLaunch, err)
	}
	defer page.Close()

	dates, runErr := r.collect(ctx, page)
	if runErr != nil {
		return Result{}, r.fail(span, runErr.Stage, runErr.Err)
	}
	if r.slots != nil {
		r.slots.Record(ctx, int64(len(dates)))
	}
	span.SetAttributes(attribute.Int("slots", len(dates)))

	cal := calendar.Group(dates)
	if !opts.NoTable {
		renderErr := calendar.Render(r.opts.Output, cal)
		if renderErr != nil {
			r.tel.ReportWarning(report_run_render, renderErr)
		}
	}

	earliest, ok := cal.Earliest()
	decision := r.detector.Decide(ctx, earliest, ok, opts.Broadcast)
	span.SetAttributes(
		attribute.Bool("changed", decision.Changed),
		attribute.Bool("notified", decision.Notified),
	)

	return Result{Calendar: cal, Decision: decision}, nil
}

func (r Runner) collect(ctx context.Context, page browser.Page) ([]time.Time, *RunError) {
	authCtx, authSpan := watchTracer.Start(ctx, "Authenticate")
	err := page.Navigate(authCtx, r.opts.EntryUrl)
	if err == nil {
		err = r.navigator.Navigate(authCtx, page, r.opts.Credentials)
	}
	if err != nil {
		authSpan.RecordError(err)
		authSpan.SetStatus(codes.Error, err.Error())
		authSpan.End()
		return nil, &RunError{Stage: StageAuthenticate, Err: err}
	}
	authSpan.End()

	r.tel.ReportInfo("retrieving slot days")
	extractCtx, extractSpan := watchTracer.Start(ctx, "Extract")
	defer extractSpan.End()
	dates, err := r.extractor.ExtractSlots(extractCtx, page)
	if err != nil {
		extractSpan.RecordError(err)
		extractSpan.SetStatus(codes.Error, err.Error())
		return nil, &RunError{Stage: StageExtract, Err: err}
	}
	return dates, nil
}
