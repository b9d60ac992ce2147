package chrono

import (
	"testing"
	"time"

	"slotwatch/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestCronRejectsBadSpec(t *testing.T) {
	c := NewStandardCron(FixedImpl{At: time.Now().UTC()}, &telemetry.Recorder{})
	require.Error(t, c.Cron("not a spec", func() {}))
	require.NoError(t, c.Cron("*/15 * * * *", func() {}))
}

func TestCronLoggerFormatsPairs(t *testing.T) {
	l := cronLogger{tel: &telemetry.Recorder{}}
	params := l.formatParams([]any{"now", 1, "entry", 2, "dangling"})
	require.Equal(t, []any{"now: 1", "entry: 2"}, params)
}
