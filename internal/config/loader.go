package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/skystream/internal/domain/model"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SKYSTREAM_CONFIG is set
//  3. env (prefix SKYSTREAM_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SKYSTREAM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SKYSTREAM_METRICS_ADDR, SKYSTREAM_ENDPOINTS, ...
	// Map env keys like SKYSTREAM_RETRY_DELAY_MS -> retry_delay_ms (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SKYSTREAM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "skystream_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// SKYSTREAM_ENDPOINTS arrives as one comma-separated string from env.
	if len(cfg.Endpoints) == 1 && strings.Contains(cfg.Endpoints[0], ",") {
		cfg.Endpoints = strings.Split(cfg.Endpoints[0], ",")
		for i := range cfg.Endpoints {
			cfg.Endpoints[i] = strings.TrimSpace(cfg.Endpoints[i])
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("%w: endpoints must not be empty", ErrInvalidConfig)
	}
	for _, raw := range c.Endpoints {
		if _, err := model.ParseEndpoint(raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if c.MetricsAddr == "" {
		return fmt.Errorf("%w: metrics_addr must not be empty", ErrInvalidConfig)
	}
	return nil
}

// ParsedEndpoints converts the configured endpoint strings to typed
// endpoints. Load has already validated them.
func (c *Config) ParsedEndpoints() ([]model.Endpoint, error) {
	endpoints := make([]model.Endpoint, 0, len(c.Endpoints))
	for _, raw := range c.Endpoints {
		ep, err := model.ParseEndpoint(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}
