package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Connection lifecycle policies for the terminal gateway session.
const (
	PolicyPersistent = "PERSISTENT"
	PolicyPerRequest = "PER_REQUEST"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Terminal struct {
		BaseURL          string `yaml:"base_url"`
		APIKeyEnv        string `yaml:"api_key_env"`
		TimeoutSeconds   int    `yaml:"timeout_seconds"`
		ConnectionPolicy string `yaml:"connection_policy"`
	} `yaml:"terminal"`
	History struct {
		LookbackDays int    `yaml:"lookback_days"`
		AnchorSymbol string `yaml:"anchor_symbol"`
	} `yaml:"history"`
	Robots struct {
		ExpertsPath string `yaml:"experts_path"`
	} `yaml:"robots"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

func (c *Config) Validate() error {
	if c.Terminal.BaseURL == "" {
		return fmt.Errorf("terminal.base_url cannot be empty")
	}
	if p := c.Terminal.ConnectionPolicy; p != PolicyPersistent && p != PolicyPerRequest {
		return fmt.Errorf("invalid terminal.connection_policy '%s': must be '%s' or '%s'",
			p, PolicyPersistent, PolicyPerRequest)
	}
	if c.History.LookbackDays <= 0 {
		return fmt.Errorf("history.lookback_days must be positive, got %d", c.History.LookbackDays)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Terminal.TimeoutSeconds == 0 {
		c.Terminal.TimeoutSeconds = 30
	}
	if c.Terminal.ConnectionPolicy == "" {
		c.Terminal.ConnectionPolicy = PolicyPerRequest
	}
	if c.History.LookbackDays == 0 {
		c.History.LookbackDays = 90
	}
	if c.History.AnchorSymbol == "" {
		c.History.AnchorSymbol = "EURUSD"
	}

	// The experts directory may be supplied via .env instead of the yaml file,
	// matching how the terminal host machine is usually provisioned.
	if v := os.Getenv("MT5_EXPERTS_PATH"); v != "" {
		c.Robots.ExpertsPath = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
