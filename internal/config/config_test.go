package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vipscall.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendAuto, cfg.Backend)
	assert.Equal(t, 100, cfg.CacheMax)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
report_leaks = true
backend = "memory"
show_deprecated = true
cache_max = 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		LogLevel:       "debug",
		ReportLeaks:    true,
		Backend:        BackendMemory,
		ShowDeprecated: true,
		CacheMax:       0,
	}, cfg)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, `report_leaks = true`))
	require.NoError(t, err)
	assert.True(t, cfg.ReportLeaks)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendAuto, cfg.Backend)
	assert.Equal(t, 100, cfg.CacheMax)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `log_level = `, "config load failed"},
		{"unknown key", "colour = \"red\"\nlog_level = \"info\"", "unknown keys colour"},
		{"bad backend", `backend = "gpu"`, `unknown backend "gpu"`},
		{"bad level", `log_level = "loud"`, `unknown log_level "loud"`},
		{"negative cache", `cache_max = -1`, "cache_max must not be negative"},
		{"wrong type", `report_leaks = "yes"`, "config load failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config load failed")
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`backend = "memory"`)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)

	_, err = Parse(`backend = 1`)
	assert.Error(t, err)
}

func TestLibrary(t *testing.T) {
	assert.Nil(t, Default().Library())

	cfg := Default()
	cfg.Backend = BackendMemory
	cfg.CacheMax = 0
	lib := cfg.Library()
	require.NotNil(t, lib)
	major, minor, _ := lib.Version()
	assert.Equal(t, 8, major)
	assert.GreaterOrEqual(t, minor, 5)
}
