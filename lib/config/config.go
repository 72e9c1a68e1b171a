// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/xcmctl/lib/ctlpath"
)

// EnvConfig names the configuration file.
const EnvConfig = "XCMCTL_CONFIG"

// Config is the master configuration.
type Config struct {
	// Control configures control sockets, on both the server and the
	// client side.
	Control ControlConfig `yaml:"control"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Host configures the xcmctl-host demo socket.
	Host HostConfig `yaml:"host"`
}

// ControlConfig configures control sockets.
type ControlConfig struct {
	// Directory holds control sockets.
	// Default: /run/xcm/ctl. Overridden by XCM_CTL.
	Directory string `yaml:"directory"`

	// MaxClients bounds concurrent sessions per control server.
	// Default: 2
	MaxClients int `yaml:"max_clients"`

	// Timeout bounds each client request.
	// Default: 2s
	Timeout string `yaml:"timeout"`
}

// HostConfig configures the demo hosting socket.
type HostConfig struct {
	// SocketID names the control socket together with the pid.
	// Default: 1
	SocketID int64 `yaml:"socket_id"`

	// Transport is reported as xcm.transport.
	// Default: ux
	Transport string `yaml:"transport"`

	// LocalAddr is reported as xcm.local_addr.
	// Default: ux:xcmctl-host
	LocalAddr string `yaml:"local_addr"`

	// AttributesFile is a JSON (with comments) object of static
	// attributes. Optional.
	AttributesFile string `yaml:"attributes_file"`

	// TLSKeyFile is the private key held by the socket. Optional.
	TLSKeyFile string `yaml:"tls_key_file"`

	// TLSCertFile is the certificate fingerprinted into
	// tls.cert_fingerprint. Optional.
	TLSCertFile string `yaml:"tls_cert_file"`

	// MetricsAddress serves Prometheus metrics when set, e.g.
	// "127.0.0.1:9464".
	MetricsAddress string `yaml:"metrics_address"`

	// PollInterval bounds one event loop wait.
	// Default: 1s
	PollInterval string `yaml:"poll_interval"`
}

// Default returns the configuration used when no file is given, and
// the base every file is merged into.
func Default() *Config {
	return &Config{
		Control: ControlConfig{
			Directory:  ctlpath.DefaultDirectory,
			MaxClients: 2,
			Timeout:    "2s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatAuto,
		},
		Host: HostConfig{
			SocketID:     1,
			Transport:    "ux",
			LocalAddr:    "ux:xcmctl-host",
			PollInterval: "1s",
		},
	}
}

// Load loads the file named by XCMCTL_CONFIG, or Default() if the
// variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		cfg := Default()
		cfg.applyEnvironment()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvironment()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	if directory := os.Getenv(ctlpath.EnvDirectory); directory != "" {
		c.Control.Directory = directory
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":            os.Getenv("HOME"),
		"XDG_RUNTIME_DIR": os.Getenv("XDG_RUNTIME_DIR"),
	}

	c.Control.Directory = expandVars(c.Control.Directory, vars)
	c.Host.AttributesFile = expandVars(c.Host.AttributesFile, vars)
	c.Host.TLSKeyFile = expandVars(c.Host.TLSKeyFile, vars)
	c.Host.TLSCertFile = expandVars(c.Host.TLSCertFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, preferring
// vars over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// ClientTimeout returns control.timeout. Call Validate first.
func (c *Config) ClientTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Control.Timeout)
	return timeout
}

// PollInterval returns host.poll_interval. Call Validate first.
func (c *Config) PollInterval() time.Duration {
	interval, _ := time.ParseDuration(c.Host.PollInterval)
	return interval
}

var transports = []string{"ux", "uxf", "tcp", "tls", "utls", "btcp", "btls", "sctp"}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Control.Directory == "" {
		errs = append(errs, errors.New("control.directory is required"))
	}
	if c.Control.MaxClients < 1 {
		errs = append(errs, fmt.Errorf("control.max_clients must be at least 1, got %d", c.Control.MaxClients))
	}
	if err := validateDuration("control.timeout", c.Control.Timeout); err != nil {
		errs = append(errs, err)
	}

	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Host.SocketID < 0 {
		errs = append(errs, fmt.Errorf("host.socket_id must not be negative, got %d", c.Host.SocketID))
	}
	if !contains(transports, c.Host.Transport) {
		errs = append(errs, fmt.Errorf("host.transport must be one of: %v", transports))
	}
	if c.Host.LocalAddr == "" {
		errs = append(errs, errors.New("host.local_addr is required"))
	}
	if err := validateDuration("host.poll_interval", c.Host.PollInterval); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateDuration(field, value string) error {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
