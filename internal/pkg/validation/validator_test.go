package validation

import (
	"strings"
	"testing"

	"sportsync/internal/pkg/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Sync: config.SyncConfig{Entity: "team", Workers: 1},
		Providers: []config.ProviderConfig{
			{Name: "opta", Path: "opta.csv"},
			{Name: "wyscout", Path: "wyscout.json", Format: "json"},
		},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"empty entity", func(c *config.Config) { c.Sync.Entity = "" }, "entity cannot be empty"},
		{"unknown entity", func(c *config.Config) { c.Sync.Entity = "stadium" }, "unknown sync entity"},
		{"single provider", func(c *config.Config) { c.Providers = c.Providers[:1] }, "at least two providers"},
		{"duplicate provider", func(c *config.Config) { c.Providers[1].Name = "opta" }, "duplicate provider name"},
		{"bad provider name", func(c *config.Config) { c.Providers[0].Name = "Opta Stats!" }, "invalid provider name"},
		{"missing path", func(c *config.Config) { c.Providers[0].Path = "" }, "feed path cannot be empty"},
		{"bad format", func(c *config.Config) { c.Providers[0].Format = "xml" }, "unknown feed format"},
		{"bad backend", func(c *config.Config) { c.Storage.Backend = "mongo" }, "unknown storage backend"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := v.ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
