package graph

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.URI != "bolt://localhost:7687" {
		t.Errorf("expected default URI 'bolt://localhost:7687', got %q", config.URI)
	}

	if config.Username != "neo4j" {
		t.Errorf("expected default username 'neo4j', got %q", config.Username)
	}

	if config.MaxConnectionPoolSize != 50 {
		t.Errorf("expected default pool size 50, got %d", config.MaxConnectionPoolSize)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing URI",
			mutate:  func(c *Config) { c.URI = "" },
			wantErr: true,
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.Username = "" },
			wantErr: true,
		},
		{
			name:    "zero pool size",
			mutate:  func(c *Config) { c.MaxConnectionPoolSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative connection timeout",
			mutate:  func(c *Config) { c.ConnectionTimeout = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
