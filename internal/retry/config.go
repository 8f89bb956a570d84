package retry

import (
	"encoding/json"
	"errors"
	"time"
)

// Config defines the configuration for the retry mechanism.
type Config struct {
	Enable   bool          `mapstructure:"enable" json:"enable"`     // Enable retry
	Attempts int           `mapstructure:"attempts" json:"attempts"` // Total number of attempts
	Interval time.Duration `mapstructure:"interval" json:"interval"` // Delay before the second attempt, doubled after each failure
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *Config {
	return &Config{
		Enable:   false,
		Attempts: 3,
		Interval: 2 * time.Second,
	}
}

// Validate validates the retry configuration.
func (cfg *Config) Validate() error {
	if cfg == nil || !cfg.Enable {
		return nil
	}
	if cfg.Attempts <= 0 {
		return errors.New("attempts must be greater than zero")
	}
	if cfg.Interval < 0 {
		return errors.New("interval cannot be negative")
	}
	return nil
}

// String returns a JSON string representation of the Config.
func (cfg *Config) String() string {
	data, _ := json.Marshal(cfg)
	return string(data)
}
