package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
		"fatal":   LevelFatal,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestLoggerLevelRoundTrip(t *testing.T) {
	l := New(LevelWarn)
	assert.Equal(t, LevelWarn, l.GetLevel())

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())

	child := l.With(String("vehicle", "kart-1"))
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestNopLoggerAcceptsAllFieldTypes(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Info("tick",
			Bool("handbrake", true),
			Float64("rpm", 4200),
			Int("wheels", 4),
			Int64("tick", 12),
			Uint64("digest", 99),
			String("id", "x"),
			Error(errors.New("boom")),
			Any("extra", []int{1}),
		)
	})
}
