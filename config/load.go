package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load. OPEN_ROUTER_KEY and
// OPEN_ROUTER_API_BASE are the names the hosted deployment has always used;
// OPENROUTER_API_KEY is accepted as the conventional spelling and wins when
// both are set.
const (
	EnvAPIKey       = "OPENROUTER_API_KEY"
	EnvAPIKeyLegacy = "OPEN_ROUTER_KEY"
	EnvAPIBase      = "OPEN_ROUTER_API_BASE"

	EnvNeo4jURI      = "NEO4J_URI"
	EnvNeo4jUsername = "NEO4J_USERNAME"
	EnvNeo4jPassword = "NEO4J_PASSWORD"

	EnvRedisURL      = "REDIS_URL"
	EnvEtcdEndpoints = "ETCD_ENDPOINTS"
)

// Load reads a YAML configuration file, applies environment variable
// overrides, and validates the result. Fields absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults behaves like Load but falls back to defaults plus
// environment overrides when the file does not exist.
func LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.applyEnv()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// FromEnv returns the default configuration with environment overrides
// applied and no validation. Callers that inject some backends themselves
// use it to pick up whatever environment state is present without being
// forced to satisfy the full configuration contract.
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadEnvFile loads variables from .env files into the process environment
// before configuration is read. With no arguments it loads "./.env" when
// present; a missing default file is not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
		paths = []string{".env"}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// applyEnv overrides configuration fields from the environment. Unset or
// empty variables leave the existing values untouched.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKeyLegacy); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.Inference.BaseURL = v
	}
	if v := os.Getenv(EnvNeo4jURI); v != "" {
		c.Graph.URI = v
	}
	if v := os.Getenv(EnvNeo4jUsername); v != "" {
		c.Graph.Username = v
	}
	if v := os.Getenv(EnvNeo4jPassword); v != "" {
		c.Graph.Password = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Store.RedisURL = v
		if c.Store.Backend == "" || c.Store.Backend == "memory" {
			c.Store.Backend = "redis"
		}
	}
	if v := os.Getenv(EnvEtcdEndpoints); v != "" {
		endpoints := make([]string, 0, 3)
		for _, ep := range strings.Split(v, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				endpoints = append(endpoints, ep)
			}
		}
		if len(endpoints) > 0 {
			c.Registry.Endpoints = endpoints
		}
	}
}
