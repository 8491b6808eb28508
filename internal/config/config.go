// Package config provides the configuration structure for the
// personalvoice-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	ProvisionSubject       string `toml:"provision_subject"`
	SynthesisSubject       string `toml:"synthesis_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// PersonalVoiceConfig holds the specific configuration for the personal
// voice workflows.
type PersonalVoiceConfig struct {
	ConfigPath          string `toml:"config_path"`
	OutputWavPath       string `toml:"output_wav_path"`
	APIVersion          string `toml:"api_version"`
	PollTimeoutSeconds  int    `toml:"poll_timeout_seconds"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS          NATSConfig          `toml:"nats"`
	PersonalVoice PersonalVoiceConfig `toml:"personal_voice"`
	Paths         PathsConfig         `toml:"paths"`
}

// Load loads the configuration for the personalvoice-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
