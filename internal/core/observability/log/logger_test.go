package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        LevelInfo,
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"fatal":   LevelFatal,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelDebug)

	l.Named("director").With(String("component", "rebuild")).Debug("indices rebuilt",
		Int("indexed", 12),
		Uint64("queries", 3),
		Duration("took", time.Millisecond),
		Float64("load", 0.5),
		Bool("subdivided", true),
		Strings("topics", []string{"a"}),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "director", entry.LoggerName)
	ctx := entry.ContextMap()
	require.Equal(t, "rebuild", ctx["component"])
	require.Equal(t, int64(12), ctx["indexed"])
	require.Equal(t, uint64(3), ctx["queries"])
	require.Equal(t, time.Millisecond, ctx["took"])
	require.Equal(t, "boom", ctx["error"])
}

func TestLoggerLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelWarn)

	l.Log(LevelInfo, "dropped")
	l.Log(LevelWarn, "kept")
	l.Log(LevelSilent, "dropped")
	require.Equal(t, 1, logs.Len())

	l.SetLevel(LevelDebug)
	require.Equal(t, LevelDebug, l.GetLevel())
	l.Log(LevelDebug, "kept")
	require.Equal(t, 2, logs.Len())

	require.NotPanics(t, func() { NewNop().Error("nothing") })
}
