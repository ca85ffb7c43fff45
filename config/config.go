package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quentin-nozomi/windows-eventlog/eventlog"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Config is the configuration of the eventlog command
type Config struct {
	Subscription Subscription `yaml:"subscription"`
	Consumer     Consumer     `yaml:"consumer"`
	Output       Output       `yaml:"output"`
	Logging      Logging      `yaml:"logging"`
	Metrics      Metrics      `yaml:"metrics"`
}

type Subscription struct {
	Channel    string `yaml:"channel"`
	Query      string `yaml:"query"`
	FromOldest bool   `yaml:"from_oldest"`
	// Bookmark XML printed by a previous run; resumes after that event.
	Bookmark string `yaml:"bookmark"`
}

type Consumer struct {
	BatchSize  int `yaml:"batch_size"`
	Workers    int `yaml:"workers"`
	BufferSize int `yaml:"buffer_size"`
}

// Output selects the record parts and their encoding
type Output struct {
	Format  string `yaml:"format"`
	System  bool   `yaml:"system"`
	User    bool   `yaml:"user"`
	XML     bool   `yaml:"xml"`
	Message bool   `yaml:"message"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Metrics struct {
	// listen address of the /metrics endpoint, disabled when empty
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	consumer := eventlog.DefaultConsumerConfig()
	return &Config{
		Subscription: Subscription{
			Channel: "System",
		},
		Consumer: Consumer{
			BatchSize:  consumer.BatchSize,
			Workers:    consumer.Workers,
			BufferSize: consumer.BufferSize,
		},
		Output: Output{
			Format:  FormatJSON,
			System:  consumer.Render.System,
			User:    consumer.Render.User,
			XML:     consumer.Render.XML,
			Message: consumer.Render.Message,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file over the defaults, so the file only needs the keys it changes.
func LoadConfig(configPath string) (*Config, error) {
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Subscription.Channel == "" {
		return fmt.Errorf("subscription.channel is required")
	}
	if c.Subscription.FromOldest && c.Subscription.Bookmark != "" {
		return fmt.Errorf("subscription.from_oldest and subscription.bookmark are mutually exclusive")
	}
	switch c.Output.Format {
	case FormatJSON, FormatYAML, FormatText:
	default:
		return fmt.Errorf("unknown output.format %q, expected %s, %s or %s", c.Output.Format, FormatJSON, FormatYAML, FormatText)
	}
	if !c.Output.System && !c.Output.User && !c.Output.XML && !c.Output.Message {
		return fmt.Errorf("output selects no record part")
	}
	if c.Consumer.BatchSize < 0 || c.Consumer.Workers < 0 || c.Consumer.BufferSize < 0 {
		return fmt.Errorf("consumer sizes must not be negative")
	}
	return nil
}

func (c *Config) RenderOptions() eventlog.RenderOptions {
	return eventlog.RenderOptions{
		System:  c.Output.System,
		User:    c.Output.User,
		XML:     c.Output.XML,
		Message: c.Output.Message,
	}
}

func (c *Config) ConsumerConfig() eventlog.ConsumerConfig {
	return eventlog.ConsumerConfig{
		BatchSize:  c.Consumer.BatchSize,
		Workers:    c.Consumer.Workers,
		BufferSize: c.Consumer.BufferSize,
		Render:     c.RenderOptions(),
	}
}
