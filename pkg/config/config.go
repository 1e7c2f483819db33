package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from the usual "30s"/"5m"
// string forms in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LeaseConfig bounds the durations the authority will accept.
type LeaseConfig struct {
	MinTTL Duration `yaml:"min_ttl"`
	MaxTTL Duration `yaml:"max_ttl"`
}

// DetectorConfig controls the periodic wait-for graph scan.
type DetectorConfig struct {
	ScanInterval Duration `yaml:"scan_interval"`
}

// Config holds all daemon configuration.
type Config struct {
	ListenAddr string         `yaml:"listen_addr"`
	DataDir    string         `yaml:"data_dir"`
	LogLevel   string         `yaml:"log_level"`
	Resources  []string       `yaml:"resources"`
	Lease      LeaseConfig    `yaml:"lease"`
	Detector   DetectorConfig `yaml:"detector"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		DataDir:    "./data",
		LogLevel:   "info",
		Lease: LeaseConfig{
			MinTTL: Duration(time.Second),
			MaxTTL: Duration(time.Hour),
		},
		Detector: DetectorConfig{
			ScanInterval: Duration(5 * time.Second),
		},
	}
}

// Load reads path and overlays it on the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Lease.MinTTL < 0 || c.Lease.MaxTTL < 0 {
		return fmt.Errorf("lease ttl bounds must not be negative")
	}
	if c.Lease.MaxTTL > 0 && c.Lease.MinTTL > c.Lease.MaxTTL {
		return fmt.Errorf("lease min_ttl exceeds max_ttl")
	}
	if c.Detector.ScanInterval.Std() <= 0 {
		return fmt.Errorf("detector scan_interval must be positive")
	}
	return nil
}
