package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	msgs []string
}

func (l *recordingLogger) Debug(msg string, _ ...Field) { l.msgs = append(l.msgs, "debug:"+msg) }
func (l *recordingLogger) Info(msg string, _ ...Field)  { l.msgs = append(l.msgs, "info:"+msg) }
func (l *recordingLogger) Warn(msg string, _ ...Field)  { l.msgs = append(l.msgs, "warn:"+msg) }
func (l *recordingLogger) Error(msg string, _ ...Field) { l.msgs = append(l.msgs, "error:"+msg) }

func TestSetLoggerRoutesCalls(t *testing.T) {
	rec := new(recordingLogger)
	SetLogger(rec)
	t.Cleanup(func() { SetLogger(nil) })

	Log().Info("hello", F("k", "v"))
	Log().Error("bad")
	require.Equal(t, []string{"info:hello", "error:bad"}, rec.msgs)
}

func TestSetLoggerNilRestoresNoop(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Log().Debug("ignored")
	Log().Warn("ignored")
}
