// Package reconcile publishes sync results into the durable identifier
// table. Rows that extend an already-published mapping update it in
// place; rows with no published counterpart get a freshly minted
// identifier; provider identifiers that collide with another published
// mapping are knocked out into quarantine instead of silently re-mapped.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"sportsync/internal/pkg/storage"
	syncpkg "sportsync/internal/sync"
)

// Options configures a reconciler.
type Options struct {
	// Entity is the entity type being published: match, team or player.
	Entity string

	// NameColumn supplies the human-readable name that seeds a minted
	// identifier, e.g. team_name or player_name.
	NameColumn string

	// PartitionColumn optionally scopes minted indices, e.g.
	// competition_id. Identifiers in different partitions never share
	// an index sequence.
	PartitionColumn string

	Logger *slog.Logger
}

// Report summarizes one reconciliation run.
type Report struct {
	RunID       string
	Updated     int // rows merged into an existing mapping
	Minted      int // rows that received a new durable identifier
	Quarantined []storage.QuarantineRecord
}

// Reconciler merges sync result tables into a mapping store.
type Reconciler struct {
	store storage.MappingStore
	opts  Options
	log   *slog.Logger
}

// NewReconciler creates a reconciler over a mapping store.
func NewReconciler(store storage.MappingStore, opts Options) (*Reconciler, error) {
	switch opts.Entity {
	case "match", "team", "player":
	default:
		return nil, fmt.Errorf("unknown entity for reconciliation: %q", opts.Entity)
	}
	if opts.NameColumn == "" {
		return nil, fmt.Errorf("name column is required for identifier minting")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, opts: opts, log: log}, nil
}

// providerKey indexes published provider identifiers.
func providerKey(provider, objectID string) string {
	return provider + "\x00" + objectID
}

// Reconcile publishes one result table. Provider identifiers already
// published under a different durable identifier keep their published
// home; the run's claim on them is quarantined.
func (r *Reconciler) Reconcile(ctx context.Context, table *syncpkg.ResultTable) (*Report, error) {
	if table == nil {
		return nil, fmt.Errorf("result table cannot be nil")
	}

	providers := providersOf(table)
	report := &Report{RunID: uuid.NewString()}

	published, err := r.store.ListMappings(ctx, r.opts.Entity)
	if err != nil {
		return nil, fmt.Errorf("failed to load published mappings: %w", err)
	}

	// Index published mappings by their provider identifiers.
	owners := make(map[string]*storage.Mapping)
	for i := range published {
		for provider, objectID := range published[i].ProviderIDs {
			owners[providerKey(provider, objectID)] = &published[i]
		}
	}

	// In-run continuation of per-prefix index sequences.
	minted := make(map[string]int)

	for _, row := range table.Rows {
		rowIDs := make(map[string]string, len(providers))
		for _, p := range providers {
			if id, ok := row.ID(p); ok {
				rowIDs[p] = id
			}
		}
		if len(rowIDs) == 0 {
			continue
		}

		target := bestOwner(owners, rowIDs)
		freshlyMinted := false
		if target == nil {
			target, err = r.mint(ctx, row, minted)
			if err != nil {
				return nil, err
			}
			freshlyMinted = true
		}

		changed := freshlyMinted
		for _, p := range sortedKeys(rowIDs) {
			objectID := rowIDs[p]
			key := providerKey(p, objectID)

			if owner, ok := owners[key]; ok && owner != target {
				q := r.quarantine(report.RunID, p, objectID,
					fmt.Sprintf("already published under %s", owner.DurableID))
				if err := r.store.StoreQuarantine(ctx, &q); err != nil {
					return nil, err
				}
				report.Quarantined = append(report.Quarantined, q)
				continue
			}
			if existing, ok := target.ProviderIDs[p]; ok && existing != objectID {
				q := r.quarantine(report.RunID, p, objectID,
					fmt.Sprintf("%s already holds %s id %s", target.DurableID, p, existing))
				if err := r.store.StoreQuarantine(ctx, &q); err != nil {
					return nil, err
				}
				report.Quarantined = append(report.Quarantined, q)
				continue
			}
			if target.ProviderIDs[p] != objectID {
				target.ProviderIDs[p] = objectID
				owners[key] = target
				changed = true
			}
		}

		if changed {
			if err := r.store.SaveMapping(ctx, target); err != nil {
				return nil, err
			}
			if freshlyMinted {
				report.Minted++
			} else {
				report.Updated++
			}
		}
	}

	r.log.Info("reconciliation finished",
		"run_id", report.RunID,
		"entity", r.opts.Entity,
		"minted", report.Minted,
		"updated", report.Updated,
		"quarantined", len(report.Quarantined))

	return report, nil
}

// mint creates a new mapping with a durable identifier of the form
// <normalized name>_<index>. Indices continue from the highest ever
// minted for the prefix, so re-running never renumbers published rows.
func (r *Reconciler) mint(ctx context.Context, row syncpkg.ResultRow, minted map[string]int) (*storage.Mapping, error) {
	prefix := mintPrefix(row[r.opts.NameColumn], r.opts.Entity)
	partition := ""
	if r.opts.PartitionColumn != "" {
		if v, ok := row[r.opts.PartitionColumn]; ok && v != nil {
			partition = fmt.Sprint(v)
		}
	}
	// Partitioned identifiers carry the partition in the prefix, so the
	// same club name in two competitions never shares a durable id.
	if partition != "" {
		prefix = mintPrefix(partition, r.opts.Entity) + "_" + prefix
	}

	seqKey := partition + "\x00" + prefix
	next, seeded := minted[seqKey]
	if !seeded {
		maxIndex, err := r.store.MaxMintedIndex(ctx, r.opts.Entity, partition, prefix)
		if err != nil {
			return nil, err
		}
		next = maxIndex
	}
	next++
	minted[seqKey] = next

	return &storage.Mapping{
		Entity:      r.opts.Entity,
		DurableID:   fmt.Sprintf("%s_%d", prefix, next),
		NamePrefix:  prefix,
		MintedIndex: next,
		Partition:   partition,
		ProviderIDs: map[string]string{},
	}, nil
}

func (r *Reconciler) quarantine(runID, provider, objectID, reason string) storage.QuarantineRecord {
	r.log.Warn("provider identifier quarantined",
		"run_id", runID,
		"provider", provider,
		"object_id", objectID,
		"reason", reason)
	return storage.QuarantineRecord{
		ID:        uuid.NewString(),
		RunID:     runID,
		Entity:    r.opts.Entity,
		Provider:  provider,
		ObjectID:  objectID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}

// bestOwner picks the published mapping sharing the most provider
// identifiers with the row. Ties go to the smallest durable identifier
// so repeated runs make the same choice.
func bestOwner(owners map[string]*storage.Mapping, rowIDs map[string]string) *storage.Mapping {
	overlap := make(map[*storage.Mapping]int)
	for p, id := range rowIDs {
		if owner, ok := owners[providerKey(p, id)]; ok {
			overlap[owner]++
		}
	}

	var best *storage.Mapping
	for owner, n := range overlap {
		if best == nil {
			best = owner
			continue
		}
		if n > overlap[best] || (n == overlap[best] && owner.DurableID < best.DurableID) {
			best = owner
		}
	}
	return best
}

// mintPrefix normalizes a display name into an identifier prefix.
func mintPrefix(name any, entity string) string {
	s, _ := name.(string)
	normalized := syncpkg.Normalize(s)
	if normalized == "" {
		return entity
	}
	return strings.ReplaceAll(normalized, " ", "_")
}

func providersOf(table *syncpkg.ResultTable) []string {
	var providers []string
	for _, col := range table.Columns {
		if p, ok := strings.CutSuffix(col, "_object_id"); ok {
			providers = append(providers, p)
		}
	}
	sort.Strings(providers)
	return providers
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
