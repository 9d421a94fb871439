// Package settings loads application settings from defaults, an optional
// config file and KART_ environment variables.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "KART"

var ErrInvalidSettings = errors.New("invalid settings")

type Settings struct {
	LogLevel string          `mapstructure:"log_level"`
	Vehicle  VehicleSettings `mapstructure:"vehicle"`
	Sim      SimSettings     `mapstructure:"sim"`
	Server   ServerSettings  `mapstructure:"server"`
	Influx   InfluxSettings  `mapstructure:"influx"`
}

type VehicleSettings struct {
	// Config is a YAML or JSON vehicle asset. Empty means the built-in kart.
	Config string `mapstructure:"config"`
	// Count is how many karts the live simulation runs.
	Count int `mapstructure:"count"`
}

type SimSettings struct {
	FixedDelta  float64 `mapstructure:"fixed_delta"` // seconds
	FrameDelta  float64 `mapstructure:"frame_delta"` // seconds, live mode only
	MaxSubsteps int     `mapstructure:"max_substeps"`
	Script      string  `mapstructure:"script"`
	Workers     int     `mapstructure:"workers"`
}

type ServerSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type InfluxSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("vehicle.config", "")
	v.SetDefault("vehicle.count", 1)

	v.SetDefault("sim.fixed_delta", 0.02)
	v.SetDefault("sim.frame_delta", 1.0/60)
	v.SetDefault("sim.max_substeps", 8)
	v.SetDefault("sim.script", "")
	v.SetDefault("sim.workers", 0)

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", "127.0.0.1:8080")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "kartsim")
	v.SetDefault("influx.bucket", "telemetry")
}

// Load reads settings. An empty path skips the config file; a missing file
// at a given path is an error.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	var errs []error
	if !(s.Sim.FixedDelta > 0) {
		errs = append(errs, fmt.Errorf("%w: sim.fixed_delta must be positive, got %v", ErrInvalidSettings, s.Sim.FixedDelta))
	}
	if s.Sim.FrameDelta < 0 {
		errs = append(errs, fmt.Errorf("%w: sim.frame_delta must not be negative, got %v", ErrInvalidSettings, s.Sim.FrameDelta))
	}
	if s.Sim.MaxSubsteps < 1 {
		errs = append(errs, fmt.Errorf("%w: sim.max_substeps must be at least 1, got %d", ErrInvalidSettings, s.Sim.MaxSubsteps))
	}
	if s.Vehicle.Count < 1 {
		errs = append(errs, fmt.Errorf("%w: vehicle.count must be at least 1, got %d", ErrInvalidSettings, s.Vehicle.Count))
	}
	if s.Server.Enabled && s.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: server.addr is required when the server is enabled", ErrInvalidSettings))
	}
	if s.Influx.Enabled && (s.Influx.URL == "" || s.Influx.Org == "" || s.Influx.Bucket == "") {
		errs = append(errs, fmt.Errorf("%w: influx.url, influx.org and influx.bucket are required when influx is enabled", ErrInvalidSettings))
	}
	return errors.Join(errs...)
}
