// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmppd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"mellium.im/xmppd/jid"
)

// EnvPrefix is the prefix of environment variables that override the
// configuration file.
const EnvPrefix = "XMPPD_"

// MismatchPolicy decides what happens to a stanza whose from address does not
// belong to the session it was received on.
type MismatchPolicy string

// A list of mismatch policies.
const (
	// MismatchDrop drops the stanza silently.
	MismatchDrop MismatchPolicy = "drop"

	// MismatchError answers the stanza with a not-authorized error.
	MismatchError MismatchPolicy = "error"

	// MismatchTerminate drops the stanza and asks the Terminator to close the
	// session.
	MismatchTerminate MismatchPolicy = "terminate"
)

// Valid reports whether p is one of the defined policies.
func (p MismatchPolicy) Valid() bool {
	switch p {
	case MismatchDrop, MismatchError, MismatchTerminate:
		return true
	}
	return false
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// Config is the server configuration.
type Config struct {
	// Domain is the address of the server itself.
	Domain string `yaml:"domain" env:"DOMAIN"`

	// AdminDomain is the domain whose users may run administrative commands.
	AdminDomain string `yaml:"admin_domain" env:"ADMIN_DOMAIN"`

	// Scripts is the path of an optional script command definition file.
	Scripts string `yaml:"scripts" env:"SCRIPTS"`

	Workers        int            `yaml:"workers" env:"WORKERS"`
	IdleTimeout    time.Duration  `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	MismatchPolicy MismatchPolicy `yaml:"mismatch_policy" env:"MISMATCH_POLICY"`

	Log LogConfig `yaml:"log" envPrefix:"LOG_"`
}

// DefaultConfig returns the configuration used for anything that is not set.
func DefaultConfig() Config {
	return Config{
		Domain:         "localhost",
		Workers:        4,
		IdleTimeout:    10 * time.Minute,
		MismatchPolicy: MismatchError,
		Log:            LogConfig{Level: "info"},
	}
}

// LoadConfig reads the YAML configuration file at path over the defaults and
// then applies overrides from the environment.
// If path is empty only the defaults and the environment are used.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		path = filepath.Clean(path)
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return cfg, fmt.Errorf("config: unsupported format %q (only YAML is supported)", ext)
		}
		// #nosec G304 -- the path is provided by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := decodeConfig(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, cfg.Validate()
}

func decodeConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config: file contains multiple documents or trailing content")
	}
	return nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if c.Domain == "" {
		errs = append(errs, errors.New("domain is required"))
	} else if j, err := jid.Parse(c.Domain); err != nil {
		errs = append(errs, fmt.Errorf("domain: %w", err))
	} else if !j.Equal(j.Domain()) {
		errs = append(errs, fmt.Errorf("domain %q must not have a localpart or resourcepart", c.Domain))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle_timeout must not be negative, got %s", c.IdleTimeout))
	}
	if !c.MismatchPolicy.Valid() {
		errs = append(errs, fmt.Errorf("unknown mismatch_policy %q", c.MismatchPolicy))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DomainJID returns the server domain as an address.
// It should only be called on a valid configuration.
func (c Config) DomainJID() jid.JID {
	j, _ := jid.Parse(c.Domain)
	return j
}
