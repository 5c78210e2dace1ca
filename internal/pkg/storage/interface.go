// Package storage persists published identifier mappings between sync
// runs. A mapping links one durable identifier to the provider object
// identifiers that were matched to it; quarantine records hold provider
// rows that could not be published because they collide with an
// already-published identifier.
package storage

import (
	"context"
	"fmt"
	"time"
)

// Mapping is one published row of the identifier table.
type Mapping struct {
	Entity      string            // match, team or player
	DurableID   string            // e.g. "bayer_leverkusen_3"
	NamePrefix  string            // normalized-name part of DurableID
	MintedIndex int               // numeric part of DurableID
	Partition   string            // e.g. competition identifier, may be empty
	ProviderIDs map[string]string // provider tag -> object identifier
	UpdatedAt   time.Time
}

// QuarantineRecord holds a provider identifier that was knocked out of a
// run because it conflicts with an already-published mapping.
type QuarantineRecord struct {
	ID        string // uuid
	RunID     string // uuid of the sync run that produced the conflict
	Entity    string
	Provider  string
	ObjectID  string
	Reason    string
	CreatedAt time.Time
}

// MappingStore is the persistence boundary for reconciliation.
type MappingStore interface {
	// ListMappings returns all published mappings for an entity type.
	ListMappings(ctx context.Context, entity string) ([]Mapping, error)

	// SaveMapping inserts or updates one mapping. Provider identifiers
	// are merged into the stored row.
	SaveMapping(ctx context.Context, m *Mapping) error

	// MaxMintedIndex returns the highest index minted for a name prefix
	// within a partition, or 0 when none exists. Minted indices are
	// never reused, so new identifiers start at max+1.
	MaxMintedIndex(ctx context.Context, entity, partition, prefix string) (int, error)

	// StoreQuarantine records a knocked-out provider identifier.
	StoreQuarantine(ctx context.Context, q *QuarantineRecord) error

	// ListQuarantine returns the quarantine records of one run.
	ListQuarantine(ctx context.Context, runID string) ([]QuarantineRecord, error)

	Close() error
}

// ErrNotConfigured is returned by New when the config names no backend.
var ErrNotConfigured = fmt.Errorf("storage backend not configured")
