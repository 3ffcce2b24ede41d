package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultClientTimeoutSeconds is used when clientTimeout is absent or zero
// in the server config (spec §4.6, §6).
const DefaultClientTimeoutSeconds = 30

// wireGuardSettings mirrors the vestigial WireGuardConfig block carried by
// the original server settings file; the connection layer there builds its
// own timeouts from call arguments rather than this block, so it stays
// unused here too. It is parsed only so a config file that includes it
// does not need to be edited to run against engarde.
type wireGuardSettings struct {
	ClientTimeout int `yaml:"clientTimeout"`
	WriteTimeout  int `yaml:"writeTimeout"`
}

// Server is the validated configuration for the server binary.
type Server struct {
	Description   string            `yaml:"description"`
	ListenAddr    string            `yaml:"listenAddr"`
	DstAddr       string            `yaml:"dstAddr"`
	ClientTimeout int               `yaml:"clientTimeout"`
	WriteTimeout  int               `yaml:"writeTimeout"`
	WireGuard     wireGuardSettings `yaml:"wireguard"`

	// WriteTimeoutCoerced mirrors Client.WriteTimeoutCoerced.
	WriteTimeoutCoerced bool `yaml:"-"`
}

type serverFile struct {
	Server Server `yaml:"server"`
}

// ApplyDefaults fills in clientTimeout and coerces writeTimeout to 0.
func (s *Server) ApplyDefaults() {
	if s.ClientTimeout == 0 {
		s.ClientTimeout = DefaultClientTimeoutSeconds
	}
	if s.WriteTimeout != 0 {
		s.WriteTimeoutCoerced = true
		s.WriteTimeout = 0
	}
}

// Validate checks that the required fields are present and sane.
func (s *Server) Validate() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server: listenAddr is required")
	}
	if s.DstAddr == "" {
		return fmt.Errorf("config: server: dstAddr is required")
	}
	if s.ClientTimeout <= 0 {
		return fmt.Errorf("config: server: clientTimeout must be positive, got %d", s.ClientTimeout)
	}
	return nil
}

// ClientTimeoutDuration converts the configured seconds into a Duration for
// use by the expiry sweeper (spec §4.7).
func (s *Server) ClientTimeoutDuration() time.Duration {
	return time.Duration(s.ClientTimeout) * time.Second
}

// LoadServer reads, parses, defaults and validates the server config file at path.
func LoadServer(path string) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f serverFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	f.Server.ApplyDefaults()
	if err := f.Server.Validate(); err != nil {
		return nil, err
	}

	return &f.Server, nil
}
