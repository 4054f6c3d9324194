// Package config loads daemon configuration from a JSON file backend
// with NUDGE_* environment overrides.
package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Schedule ScheduleConfig
	Audio    AudioConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type ScheduleConfig struct {
	// PollInterval is a Go duration string, e.g. "30s".
	PollInterval string
}

type AudioConfig struct {
	// PlayerCommand overrides the auto-detected playback command.
	PlayerCommand string
	// SpeechCommand is the speech-to-text command for `nudge listen`.
	// It must print transcript lines to stdout.
	SpeechCommand string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4520,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Schedule: ScheduleConfig{
			PollInterval: "30s",
		},
		Audio: AudioConfig{
			SpeechCommand: "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/nudge/config.json; NUDGE_* environment variables
// override file values.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if _, err := cfg.PollInterval(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// PollInterval parses the scheduler interval.
func (c Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Schedule.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule.poll_interval %q: %w", c.Schedule.PollInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("schedule.poll_interval must be positive, got %q", c.Schedule.PollInterval)
	}
	return d, nil
}
