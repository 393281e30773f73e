// Package config loads the TOML configuration of the vipscall commands.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cshum/vipscall/internal/memvips"
	"github.com/cshum/vipscall/native"
)

// Backends accepted by Config.Backend.
const (
	BackendAuto   = "auto"
	BackendMemory = "memory"
)

const defaultCacheMax = 100

type Config struct {
	LogLevel       string `toml:"log_level"`
	ReportLeaks    bool   `toml:"report_leaks"`
	Backend        string `toml:"backend"`
	ShowDeprecated bool   `toml:"show_deprecated"`
	// CacheMax sizes the operation cache of the memory backend. Zero
	// disables caching.
	CacheMax int `toml:"cache_max"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Backend:  BackendAuto,
		CacheMax: defaultCacheMax,
	}
}

// Load reads path, fills unset fields with defaults and validates the
// result. An empty path yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config load failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = BackendAuto
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text the way Load decodes a file.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	switch cfg.Backend {
	case BackendAuto, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q, want %q or %q", cfg.Backend, BackendAuto, BackendMemory)
	}
	if cfg.CacheMax < 0 {
		return fmt.Errorf("cache_max must not be negative")
	}
	return nil
}

// Library returns the backend to start, or nil for the build's default.
func (c Config) Library() native.Library {
	if c.Backend == BackendMemory {
		return memvips.New(memvips.WithCacheMax(c.CacheMax))
	}
	return nil
}
