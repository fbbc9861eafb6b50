// Package config loads subscriber settings from .env files, an optional
// YAML file and the process environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvBroker     = "MQTT_BROKER"
	EnvPort       = "MQTT_PORT"
	EnvTopic      = "MQTT_TOPIC"
	EnvClientID   = "MQTT_CLIENT_ID"
	EnvLogLevel   = "LOG_LEVEL"
	EnvLogFormat  = "LOG_FORMAT"
	EnvLogOutput  = "LOG_OUTPUT"
	EnvConfigFile = "CONFIG_FILE"
)

// DefaultPort is the plain MQTT TCP port.
const DefaultPort = 1883

var (
	// ErrMissingBroker is returned when no broker address is configured.
	ErrMissingBroker = errors.New("config: broker address is required (set MQTT_BROKER)")

	// ErrMissingTopic is returned when no topic is configured.
	ErrMissingTopic = errors.New("config: topic is required (set MQTT_TOPIC)")

	// ErrInvalidPort is returned when the port is not an integer in 1..65535.
	ErrInvalidPort = errors.New("config: invalid broker port")
)

// Config is the root configuration.
type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Address returns the broker address as host:port.
func (c MQTTConfig) Address() string {
	return net.JoinHostPort(c.Broker, strconv.Itoa(c.Port))
}

// BrokerURL returns the paho broker URL for a plain TCP connection.
func (c MQTTConfig) BrokerURL() string {
	return "tcp://" + c.Address()
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given). Files that do not exist are skipped, and variables already
// present in the environment are left untouched.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and environment overrides, then validates it.
//
// A set but non-numeric MQTT_PORT is an error; it never falls back to the
// default port.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Port: DefaultPort,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvBroker); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidPort, EnvPort, v, err)
		}
		cfg.MQTT.Port = port
	}
	if v := os.Getenv(EnvTopic); v != "" {
		cfg.MQTT.Topic = v
	}
	if v := os.Getenv(EnvClientID); v != "" {
		cfg.MQTT.ClientID = v
	}

	applyLoggingEnv(&cfg.Logging)
	return nil
}

func applyLoggingEnv(cfg *LoggingConfig) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv(EnvLogOutput); v != "" {
		cfg.Output = v
	}
}

// LoggingFromEnv returns the default logging settings with LOG_* overrides
// applied, for tools that need no broker settings.
func LoggingFromEnv() LoggingConfig {
	cfg := defaultConfig().Logging
	applyLoggingEnv(&cfg)
	return cfg
}

// Validate reports every configuration problem at once. Each problem
// matches its sentinel error with errors.Is.
func (c *Config) Validate() error {
	var errs []error

	if c.MQTT.Broker == "" {
		errs = append(errs, ErrMissingBroker)
	}
	if c.MQTT.Topic == "" {
		errs = append(errs, ErrMissingTopic)
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d is outside 1..65535", ErrInvalidPort, c.MQTT.Port))
	}

	return errors.Join(errs...)
}
