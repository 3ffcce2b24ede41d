// Package config loads and validates the YAML configuration for both the
// engarde client and server binaries, following the teacher's
// ApplyDefaults()/Validate() convention (internal/agent/config.go) rather
// than a single monolithic loader.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no config path is given on the command
// line (spec §6).
const DefaultConfigPath = "engarde.yml"

// Client is the validated configuration for the client binary.
type Client struct {
	Description        string   `yaml:"description"`
	ListenAddr         string   `yaml:"listenAddr"`
	DstAddr            string   `yaml:"dstAddr"`
	WriteTimeout       int      `yaml:"writeTimeout"`
	ExcludedInterfaces []string `yaml:"excludedInterfaces"`

	// WriteTimeoutCoerced is set by ApplyDefaults when a non-zero
	// writeTimeout was configured and forced back to zero. Not part of
	// the wire format; callers inspect it to emit the one-time warning
	// required by spec §7.
	WriteTimeoutCoerced bool `yaml:"-"`
}

type clientFile struct {
	Client Client `yaml:"client"`
}

// ApplyDefaults coerces WriteTimeout to 0, since it is declared in the wire
// format but not yet implemented (spec §7, §9).
func (c *Client) ApplyDefaults() {
	if c.WriteTimeout != 0 {
		c.WriteTimeoutCoerced = true
		c.WriteTimeout = 0
	}
}

// Validate checks that the required fields are present.
func (c *Client) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: client: listenAddr is required")
	}
	if c.DstAddr == "" {
		return fmt.Errorf("config: client: dstAddr is required")
	}
	return nil
}

// ExcludedSet returns ExcludedInterfaces as a set for O(1) membership
// checks during reconciliation (spec §4.2).
func (c *Client) ExcludedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ExcludedInterfaces))
	for _, name := range c.ExcludedInterfaces {
		set[name] = struct{}{}
	}
	return set
}

// LoadClient reads, parses, defaults and validates the client config file at path.
func LoadClient(path string) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f clientFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	f.Client.ApplyDefaults()
	if err := f.Client.Validate(); err != nil {
		return nil, err
	}

	return &f.Client, nil
}
