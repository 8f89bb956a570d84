package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"leasemeter/internal/logger"
	"leasemeter/internal/retry"
	"leasemeter/internal/validator"

	"github.com/spf13/viper"
)

var (
	AppName   = "leasemeter"
	EnvPrefix = "LEASEMETER"
)

// Config represents the application configuration
type Config struct {
	Inventory InventoryConfig `mapstructure:"inventory"`
	SSH       SSHConfig       `mapstructure:"ssh"`
	Retry     retry.Config    `mapstructure:"retry"`
	Log       logger.Config   `mapstructure:"log"`
}

// InventoryConfig represents the report run configuration
type InventoryConfig struct {
	RoutersFile   string `mapstructure:"routers_file" validate:"required"`
	RoutersHeader string `mapstructure:"routers_header" validate:"oneof=auto present absent"` // first row of the router list
	OutputFile    string `mapstructure:"output_file" validate:"required"`
	Concurrency   int    `mapstructure:"concurrency" validate:"min=1,max=1024"`
	// ReservedAddresses is subtracted from every subnet size to get the
	// number of leasable addresses (network, broadcast and gateway by default).
	ReservedAddresses int `mapstructure:"reserved_addresses" validate:"gte=0"`
}

// SSHConfig represents the router session configuration
type SSHConfig struct {
	Username       string        `mapstructure:"username" validate:"required"`
	Password       string        `mapstructure:"password"`
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	KnownHostsFile string        `mapstructure:"known_hosts_file"`
	// LoginOptions are appended to the username after "+" (RouterOS console
	// options, e.g. "cet1024w" for no colors, dumb terminal, 1024 columns).
	LoginOptions string `mapstructure:"login_options"`
}

// defaults are registered with viper so that every key can be overridden
// from the environment.
var defaults = map[string]any{
	"inventory.routers_file":       "routers.csv",
	"inventory.routers_header":     "auto",
	"inventory.output_file":        "output.csv",
	"inventory.concurrency":        40,
	"inventory.reserved_addresses": 3,
	"ssh.username":                 "",
	"ssh.password":                 "",
	"ssh.port":                     22,
	"ssh.timeout":                  10 * time.Second,
	"ssh.command_timeout":          30 * time.Second,
	"ssh.known_hosts_file":         "",
	"ssh.login_options":            "cet1024w",
	"retry.enable":                 false,
	"retry.attempts":               3,
	"retry.interval":               2 * time.Second,
	"log.level":                    "info",
	"log.file":                     "",
	"log.max_size":                 100,
	"log.max_backups":              3,
	"log.max_age":                  28,
	"log.compress":                 false,
}

// LoadConfig loads configuration from path, or from the default search
// paths when path is empty. A missing file is only an error when path is set.
// Environment variables (LEASEMETER_SSH_PASSWORD, ...) override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/" + AppName)
		v.AddConfigPath("/etc/" + AppName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults fills values that may have been zeroed by the config file
func setDefaults(config *Config) {
	if config.Inventory.RoutersHeader == "" {
		config.Inventory.RoutersHeader = "auto"
	}

	if config.Inventory.Concurrency == 0 {
		config.Inventory.Concurrency = 40
	}

	if config.SSH.Port == 0 {
		config.SSH.Port = 22
	}

	if config.SSH.Timeout == 0 {
		config.SSH.Timeout = 10 * time.Second
	}

	if config.SSH.CommandTimeout == 0 {
		config.SSH.CommandTimeout = 30 * time.Second
	}

	config.Log = *config.Log.SetDefaults()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.SSH.Timeout < 0 || c.SSH.CommandTimeout < 0 {
		return fmt.Errorf("ssh timeouts cannot be negative")
	}

	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}
