// Package config handles ZOCP node configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order. An explicit
// path (from a -config flag) is checked first by FindConfig. Then:
// ./zocp.yaml, ~/.config/zocp/zocp.yaml, /etc/zocp/zocp.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"zocp.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "zocp", "zocp.yaml"))
	}

	paths = append(paths, "/etc/zocp/zocp.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches DefaultSearchPaths and returns the first
// that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all node configuration.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Transport TransportConfig `yaml:"transport"`
	LogLevel  string          `yaml:"log_level"`
}

// NodeConfig names this node and its announced headers.
type NodeConfig struct {
	Name    string            `yaml:"name"`
	Headers map[string]string `yaml:"headers"`
}

// TransportConfig holds the ZRE transport settings read from the
// config file. The zre transport does not read them: it uses its own
// built-in beacon port and interval and binds on every interface.
type TransportConfig struct {
	BeaconPort     int    `yaml:"beacon_port"`
	BeaconInterval string `yaml:"beacon_interval"`
	Interface      string `yaml:"interface"`
}

// Load reads and parses the YAML config at path, applying defaults and
// validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in the beacon port, beacon interval and log
// level when they are unset. Called automatically by Load. The node
// name, headers and interface keep their zero values when absent.
func (c *Config) applyDefaults() {
	if c.Transport.BeaconPort == 0 {
		c.Transport.BeaconPort = 5670
	}
	if c.Transport.BeaconInterval == "" {
		c.Transport.BeaconInterval = "1s"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports whether the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Transport.BeaconPort < 1 || c.Transport.BeaconPort > 65535 {
		return fmt.Errorf("transport.beacon_port %d out of range (1-65535)", c.Transport.BeaconPort)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Default returns a default configuration suitable for local
// development; all defaults are already applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
