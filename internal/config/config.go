// Package config loads the provider configuration from defaults, an optional
// YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/melih/pingap-docker-provider/internal/core/applier"
)

const (
	EnvPingapAdminURL = "PINGAP_ADMIN_URL"
	EnvDockerHost     = "DOCKER_HOST"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvStatusAddr     = "STATUS_ADDR"

	FormatText = "text"
	FormatJSON = "json"
)

var ErrMissingAdminURL = errors.New(EnvPingapAdminURL + " is required")

type Config struct {
	// PingapAdminURL is the base URL of the pingap admin API.
	PingapAdminURL string `yaml:"pingap_admin_url"`
	// DockerHost overrides the daemon address; empty uses the Docker defaults.
	DockerHost string `yaml:"docker_host"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	// StatusAddr enables the status server when set, e.g. ":9180".
	StatusAddr       string        `yaml:"status_addr"`
	ApplyMaxElapsed  time.Duration `yaml:"apply_max_elapsed"`
	DeleteMaxElapsed time.Duration `yaml:"delete_max_elapsed"`
}

func Default() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        FormatText,
		ApplyMaxElapsed:  applier.DefaultApplyMaxElapsed,
		DeleteMaxElapsed: applier.DefaultDeleteMaxElapsed,
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and then with the environment read through getenv.
// The result is not validated.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	overlay(&cfg.PingapAdminURL, getenv(EnvPingapAdminURL))
	overlay(&cfg.DockerHost, getenv(EnvDockerHost))
	overlay(&cfg.LogLevel, getenv(EnvLogLevel))
	overlay(&cfg.LogFormat, getenv(EnvLogFormat))
	overlay(&cfg.StatusAddr, getenv(EnvStatusAddr))

	return cfg, nil
}

func overlay(field *string, value string) {
	if value != "" {
		*field = value
	}
}

// Validate checks the configuration and normalizes the admin URL by trimming
// a trailing slash.
func (c *Config) Validate() error {
	if c.PingapAdminURL == "" {
		return ErrMissingAdminURL
	}
	u, err := url.Parse(c.PingapAdminURL)
	if err != nil {
		return fmt.Errorf("invalid pingap admin url %q: %w", c.PingapAdminURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid pingap admin url %q: must be an absolute http or https url", c.PingapAdminURL)
	}
	c.PingapAdminURL = strings.TrimRight(c.PingapAdminURL, "/")

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.LogFormat {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: must be %q or %q", c.LogFormat, FormatText, FormatJSON)
	}

	if c.ApplyMaxElapsed <= 0 {
		return fmt.Errorf("apply_max_elapsed must be positive, got %s", c.ApplyMaxElapsed)
	}
	if c.DeleteMaxElapsed <= 0 {
		return fmt.Errorf("delete_max_elapsed must be positive, got %s", c.DeleteMaxElapsed)
	}
	return nil
}
