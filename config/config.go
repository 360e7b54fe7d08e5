// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 The ipaget Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package config loads the optional ipaget configuration file and the
// account credentials from the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ipaget/ipaget/deviceid"
	"github.com/ipaget/ipaget/osutil"
	"github.com/ipaget/ipaget/store"
)

// EnvConfigPath names the environment variable overriding the
// configuration file location.
const EnvConfigPath = "IPAGET_CONFIG"

var (
	emailEnvKeys    = []string{"IPAGET_EMAIL", "EMAIL"}
	passwordEnvKeys = []string{"IPAGET_PASSWORD", "PASSWORD"}
)

// Endpoints overrides the store endpoints, mostly for testing.
type Endpoints struct {
	Auth         string `yaml:"auth,omitempty"`
	ListBuilds   string `yaml:"list-builds,omitempty"`
	ResolveBuild string `yaml:"resolve-build,omitempty"`
	Search       string `yaml:"search,omitempty"`
}

// Config is the content of the configuration file. Every field is
// optional.
type Config struct {
	// DeviceID pins the device identifier instead of deriving it from
	// the hardware.
	DeviceID string `yaml:"device-id,omitempty"`
	// Country is the storefront used for searching.
	Country string `yaml:"country,omitempty"`
	// BuildOrder is "reversed" (the default) or "server".
	BuildOrder string `yaml:"build-order,omitempty"`
	// RateLimit caps downloads, in bytes per second.
	RateLimit int64 `yaml:"rate-limit,omitempty"`
	// OutputDir is where downloads end up; the current directory if
	// unset.
	OutputDir string `yaml:"output-dir,omitempty"`

	Endpoints Endpoints `yaml:"endpoints,omitempty"`
}

var userHomeDir = os.UserHomeDir

// DefaultPath returns where the configuration file is looked for.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find the home directory: %v", err)
	}
	return filepath.Join(home, ".config", "ipaget", "config.yaml"), nil
}

// Load reads the configuration at path. A missing file is an empty
// configuration unless mustExist is set.
func Load(path string, mustExist bool) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !mustExist {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration: %v", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("cannot load configuration %q: %v", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.DeviceID != "" {
		if _, err := deviceid.Normalize(c.DeviceID); err != nil {
			return err
		}
	}
	if c.Country != "" && len(c.Country) != 2 {
		return fmt.Errorf("invalid country %q: want a two letter code", c.Country)
	}
	if _, err := store.ParseBuildOrder(c.BuildOrder); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate-limit %d: cannot be negative", c.RateLimit)
	}
	for _, e := range []struct{ name, value string }{
		{"auth", c.Endpoints.Auth},
		{"list-builds", c.Endpoints.ListBuilds},
		{"resolve-build", c.Endpoints.ResolveBuild},
		{"search", c.Endpoints.Search},
	} {
		if _, err := parseEndpoint(e.value); err != nil {
			return fmt.Errorf("invalid %s endpoint: %v", e.name, err)
		}
	}
	return nil
}

func parseEndpoint(s string) (*url.URL, error) {
	if s == "" {
		return nil, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", s)
	}
	return u, nil
}

// StoreConfig returns the store configuration for this configuration,
// using deviceID as the device identifier.
func (c *Config) StoreConfig(deviceID string) (*store.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cfg := store.DefaultConfig()
	cfg.DeviceID = deviceID
	if c.Country != "" {
		cfg.Country = c.Country
	}
	cfg.BuildOrder, _ = store.ParseBuildOrder(c.BuildOrder)

	for _, e := range []struct {
		value string
		dst   **url.URL
	}{
		{c.Endpoints.Auth, &cfg.AuthURI},
		{c.Endpoints.ListBuilds, &cfg.ListBuildsURI},
		{c.Endpoints.ResolveBuild, &cfg.ResolveBuildURI},
		{c.Endpoints.Search, &cfg.SearchURI},
	} {
		if u, _ := parseEndpoint(e.value); u != nil {
			*e.dst = u
		}
	}
	return cfg, nil
}

// Credentials are the account details the environment provides. Either
// may be empty, in which case the user gets asked.
type Credentials struct {
	Email    string
	Password string
}

// CredentialsFromEnv reads IPAGET_EMAIL and IPAGET_PASSWORD, falling back
// to the plain EMAIL and PASSWORD variables.
func CredentialsFromEnv() Credentials {
	return Credentials{
		Email:    osutil.GetenvFirst(emailEnvKeys...),
		Password: osutil.GetenvFirst(passwordEnvKeys...),
	}
}
