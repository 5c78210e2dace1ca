// Package validation checks run configuration and provider feeds before
// a sync run starts, so bad input fails fast with a clear message
// instead of surfacing as a half-finished mapping table.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"sportsync/internal/pkg/config"
)

// Validator implements preflight validation for sync runs.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

var providerNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateConfig validates a loaded run configuration.
func (v *Validator) ValidateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := v.validateEntity(cfg.Sync.Entity); err != nil {
		return err
	}

	if len(cfg.Providers) < 2 {
		return fmt.Errorf("at least two providers are required, got %d", len(cfg.Providers))
	}

	seen := make(map[string]bool, len(cfg.Providers))
	for i, p := range cfg.Providers {
		if err := v.ValidateProvider(&p); err != nil {
			return fmt.Errorf("provider %d validation failed: %w", i, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name: %s", p.Name)
		}
		seen[p.Name] = true
	}

	switch cfg.Storage.Backend {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	return nil
}

// ValidateProvider validates a single provider entry.
func (v *Validator) ValidateProvider(p *config.ProviderConfig) error {
	if p == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	if p.Name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	// Provider names become column prefixes in the result table, so they
	// must be safe identifiers.
	if !providerNameRe.MatchString(p.Name) {
		return fmt.Errorf("invalid provider name: %s", p.Name)
	}

	if p.Path == "" {
		return fmt.Errorf("provider %s: feed path cannot be empty", p.Name)
	}

	switch strings.ToLower(p.Format) {
	case "", "csv", "json":
	default:
		return fmt.Errorf("provider %s: unknown feed format: %s", p.Name, p.Format)
	}

	return nil
}

func (v *Validator) validateEntity(entity string) error {
	switch entity {
	case "match", "team", "player":
		return nil
	case "":
		return fmt.Errorf("sync entity cannot be empty")
	}
	return fmt.Errorf("unknown sync entity: %s", entity)
}
