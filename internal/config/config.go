// Package config loads sharkctl configuration from a YAML file and the
// environment.
//
// Loading order:
//  1. Default values
//  2. YAML file values (optional)
//  3. SHARK_* environment variables
//
// Passwords should be supplied through the environment rather than the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	shark "github.com/tj-smith47/shark-go"
)

// Config is the root configuration structure.
type Config struct {
	Account AccountConfig `yaml:"account"`
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// AccountConfig holds the Shark account credentials.
type AccountConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	// MobileOS is "ios" or "android".
	MobileOS string `yaml:"mobile_os"`
}

// APIConfig holds client transport settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MQTTConfig holds settings for the MQTT bridge.
type MQTTConfig struct {
	Broker       string        `yaml:"broker"`
	ClientID     string        `yaml:"client_id"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	TopicPrefix  string        `yaml:"topic_prefix"`
	QoS          int           `yaml:"qos"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Load reads configuration from path and applies environment overrides.
// An empty path skips the file and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			MobileOS: "ios",
		},
		API: APIConfig{
			BaseURL: shark.DefaultBaseURL,
			Timeout: shark.DefaultTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		MQTT: MQTTConfig{
			ClientID:     "sharkctl",
			TopicPrefix:  "shark",
			QoS:          1,
			PollInterval: 60 * time.Second,
		},
	}
}

// applyEnvOverrides applies SHARK_* environment variables.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"SHARK_EMAIL", &cfg.Account.Email},
		{"SHARK_PASSWORD", &cfg.Account.Password},
		{"SHARK_MOBILE_OS", &cfg.Account.MobileOS},
		{"SHARK_BASE_URL", &cfg.API.BaseURL},
		{"SHARK_LOG_LEVEL", &cfg.Logging.Level},
		{"SHARK_MQTT_BROKER", &cfg.MQTT.Broker},
		{"SHARK_MQTT_USERNAME", &cfg.MQTT.Username},
		{"SHARK_MQTT_PASSWORD", &cfg.MQTT.Password},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks the configuration for errors. MQTT settings are only
// checked when a broker is configured.
func (c *Config) Validate() error {
	var errs []string

	if c.Account.Email == "" {
		errs = append(errs, "account.email is required (set SHARK_EMAIL)")
	}
	if c.Account.Password == "" {
		errs = append(errs, "account.password is required (set SHARK_PASSWORD)")
	}
	if _, err := c.Account.OS(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	}
	if c.API.Timeout < 0 {
		errs = append(errs, "api.timeout must not be negative")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, "logging.format must be text or json")
	}

	if c.MQTT.Broker != "" {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required")
		}
		if c.MQTT.PollInterval <= 0 {
			errs = append(errs, "mqtt.poll_interval must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ErrUnknownMobileOS is returned for a mobile_os other than ios or android.
var ErrUnknownMobileOS = errors.New("account.mobile_os must be ios or android")

// OS maps the configured mobile_os to the client's app identity.
func (a AccountConfig) OS() (shark.MobileOS, error) {
	switch strings.ToLower(a.MobileOS) {
	case "ios":
		return shark.MobileOSiOS, nil
	case "android":
		return shark.MobileOSAndroid, nil
	default:
		return "", ErrUnknownMobileOS
	}
}

// Credentials returns the account as client credentials.
func (c *Config) Credentials() (shark.Credentials, error) {
	mobileOS, err := c.Account.OS()
	if err != nil {
		return shark.Credentials{}, err
	}
	return shark.Credentials{
		Email:    c.Account.Email,
		Password: c.Account.Password,
		MobileOS: mobileOS,
	}, nil
}
