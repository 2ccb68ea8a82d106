package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lvladikov/hue-reporter/internal/aggregate"
)

// Config represents the application configuration
type Config struct {
	Bridges         []BridgeConfig    `yaml:"bridges"`
	Hue             HueConfig         `yaml:"hue"`
	Aggregation     AggregationConfig `yaml:"aggregation"`
	Monitor         MonitorConfig     `yaml:"monitor"`
	Log             LogConfig         `yaml:"log"`
	EventBus        EventBusConfig    `yaml:"eventbus"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// BridgeConfig identifies one bridge. The token is the pre-obtained API
// credential; obtaining one is external setup.
type BridgeConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Token   string `yaml:"token"`
}

// HueConfig contains bridge HTTP settings
type HueConfig struct {
	Timeout Duration `yaml:"timeout"` // HTTP timeout for bridge requests (default: 5s)
}

// AggregationConfig contains snapshot aggregation tunables
type AggregationConfig struct {
	Concurrency      int `yaml:"concurrency"`       // Simultaneous bridge fetches (default: CPU cores, min 2)
	BatteryThreshold int `yaml:"battery_threshold"` // Low-battery alert percentage (default: 10)
}

// MonitorConfig contains differential monitor settings
type MonitorConfig struct {
	Interval    Duration          `yaml:"interval"` // Poll interval (default: 10s)
	Healthcheck HealthcheckConfig `yaml:"healthcheck"`
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 4)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// AggregationContext builds the explicit context value the aggregator
// consumes. All credentials and tunables travel here; no ambient state.
func (c *Config) AggregationContext() aggregate.Context {
	bridges := make([]aggregate.BridgeConfig, 0, len(c.Bridges))
	for _, b := range c.Bridges {
		bridges = append(bridges, aggregate.BridgeConfig{
			Name:    b.Name,
			Address: b.Address,
			Token:   b.Token,
		})
	}
	return aggregate.Context{
		Bridges:          bridges,
		Concurrency:      c.Aggregation.Concurrency,
		BatteryThreshold: c.Aggregation.BatteryThreshold,
		Timeout:          c.Hue.Timeout.Duration(),
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	if len(cfg.Bridges) == 0 {
		return nil, fmt.Errorf("no bridges configured")
	}
	for i, b := range cfg.Bridges {
		if b.Address == "" {
			return nil, fmt.Errorf("bridge %d: address is required", i)
		}
		if b.Token == "" {
			return nil, fmt.Errorf("bridge %q: token is required", b.Name)
		}
		if b.Name == "" {
			cfg.Bridges[i].Name = b.Address
		}
	}

	// Set defaults
	if cfg.Hue.Timeout == 0 {
		cfg.Hue.Timeout = Duration(5 * time.Second)
	}
	if cfg.Aggregation.Concurrency <= 0 {
		cfg.Aggregation.Concurrency = aggregate.DefaultConcurrency()
	}
	if cfg.Aggregation.BatteryThreshold <= 0 {
		cfg.Aggregation.BatteryThreshold = 10
	}

	// Monitor defaults
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = Duration(10 * time.Second)
	}
	if cfg.Monitor.Healthcheck.Port == 0 {
		cfg.Monitor.Healthcheck.Port = 9090
	}
	if cfg.Monitor.Healthcheck.Host == "" {
		cfg.Monitor.Healthcheck.Host = "0.0.0.0"
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
