package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARNING ", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestParseBool(t *testing.T) {
	v, ok := parseBool("true")
	assert.True(t, v)
	assert.True(t, ok)

	_, ok = parseBool("")
	assert.False(t, ok)

	_, ok = parseBool("maybe")
	assert.False(t, ok)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")

	s := defaultSettings(ProfileRuntime)
	assert.True(t, s.Timestamp)
	applyEnvOverrides(&s)
	assert.Equal(t, zerolog.ErrorLevel, s.Level)
	assert.False(t, s.Timestamp)
	assert.True(t, s.NoColor)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New("vipscall", Settings{Level: zerolog.InfoLevel, NoColor: true, Out: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Str("operation", "black").Msg("call")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "call")
	assert.Contains(t, out, "app=vipscall")
	assert.Contains(t, out, "operation=black")
}

func TestConfigureOnce(t *testing.T) {
	t.Setenv(EnvLogNoColor, "true")
	first := Configure("vipscall", ProfileTest, "warn")
	second := Configure("other", ProfileRuntime, "debug")
	assert.Equal(t, zerolog.WarnLevel, first.GetLevel())
	assert.Equal(t, first.GetLevel(), second.GetLevel())
}
