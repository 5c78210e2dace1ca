package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"sportsync/internal/pkg/config"
)

var _ MappingStore = (*SQLiteMappingStore)(nil)

// SQLiteMappingStore stores published mappings in a local SQLite file.
// It implements the same MappingStore interface as the Postgres store,
// for local runs and tests that do not have a database server.
type SQLiteMappingStore struct {
	db *sql.DB
}

// NewSQLiteMappingStore opens or creates a SQLite mapping store.
func NewSQLiteMappingStore(cfg *config.SQLiteConfig) (*SQLiteMappingStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteMappingStore{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("SQLite mapping store initialized", "path", cfg.Path)
	return store, nil
}

func (s *SQLiteMappingStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS entity_mappings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity TEXT NOT NULL,
		durable_id TEXT NOT NULL,
		name_prefix TEXT NOT NULL,
		minted_index INTEGER NOT NULL,
		partition_key TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		object_id TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(entity, provider, object_id)
	);

	CREATE INDEX IF NOT EXISTS idx_entity_mappings_durable_id ON entity_mappings(entity, durable_id);
	CREATE INDEX IF NOT EXISTS idx_entity_mappings_minted ON entity_mappings(entity, partition_key, name_prefix, minted_index DESC);

	CREATE TABLE IF NOT EXISTS quarantine_records (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		entity TEXT NOT NULL,
		provider TEXT NOT NULL,
		object_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quarantine_records_run_id ON quarantine_records(run_id);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLiteMappingStore) ListMappings(ctx context.Context, entity string) ([]Mapping, error) {
	query := `
	SELECT durable_id, name_prefix, minted_index, partition_key, provider, object_id, updated_at
	FROM entity_mappings
	WHERE entity = ?
	ORDER BY durable_id, provider
	`

	rows, err := s.db.QueryContext(ctx, query, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var (
		mappings []Mapping
		current  *Mapping
	)
	for rows.Next() {
		var (
			durableID, prefix, partition, provider, objectID, updatedRaw string
			index                                                        int
		)
		if err := rows.Scan(&durableID, &prefix, &index, &partition, &provider, &objectID, &updatedRaw); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		if current == nil || current.DurableID != durableID {
			mappings = append(mappings, Mapping{
				Entity:      entity,
				DurableID:   durableID,
				NamePrefix:  prefix,
				MintedIndex: index,
				Partition:   partition,
				ProviderIDs: map[string]string{},
			})
			current = &mappings[len(mappings)-1]
		}
		current.ProviderIDs[provider] = objectID
		if t, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil && t.After(current.UpdatedAt) {
			current.UpdatedAt = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappings: %w", err)
	}

	return mappings, nil
}

func (s *SQLiteMappingStore) SaveMapping(ctx context.Context, m *Mapping) error {
	query := `
	INSERT INTO entity_mappings (
		entity, durable_id, name_prefix, minted_index, partition_key, provider, object_id, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (entity, provider, object_id) DO UPDATE
	SET durable_id = excluded.durable_id,
	    name_prefix = excluded.name_prefix,
	    minted_index = excluded.minted_index,
	    partition_key = excluded.partition_key,
	    updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for provider, objectID := range m.ProviderIDs {
		if _, err := s.db.ExecContext(ctx, query,
			m.Entity, m.DurableID, m.NamePrefix, m.MintedIndex, m.Partition, provider, objectID, now,
		); err != nil {
			return fmt.Errorf("failed to save mapping %s: %w", m.DurableID, err)
		}
	}

	return nil
}

func (s *SQLiteMappingStore) MaxMintedIndex(ctx context.Context, entity, partition, prefix string) (int, error) {
	query := `
	SELECT COALESCE(MAX(minted_index), 0)
	FROM entity_mappings
	WHERE entity = ? AND partition_key = ? AND name_prefix = ?
	`

	var maxIndex int
	if err := s.db.QueryRowContext(ctx, query, entity, partition, prefix).Scan(&maxIndex); err != nil {
		return 0, fmt.Errorf("failed to query max minted index: %w", err)
	}

	return maxIndex, nil
}

func (s *SQLiteMappingStore) StoreQuarantine(ctx context.Context, q *QuarantineRecord) error {
	query := `
	INSERT INTO quarantine_records (id, run_id, entity, provider, object_id, reason, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query,
		q.ID, q.RunID, q.Entity, q.Provider, q.ObjectID, q.Reason, q.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to store quarantine record: %w", err)
	}

	return nil
}

func (s *SQLiteMappingStore) ListQuarantine(ctx context.Context, runID string) ([]QuarantineRecord, error) {
	query := `
	SELECT id, run_id, entity, provider, object_id, reason, created_at
	FROM quarantine_records
	WHERE run_id = ?
	ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarantine records: %w", err)
	}
	defer rows.Close()

	var records []QuarantineRecord
	for rows.Next() {
		var (
			q          QuarantineRecord
			createdRaw string
		)
		if err := rows.Scan(&q.ID, &q.RunID, &q.Entity, &q.Provider, &q.ObjectID, &q.Reason, &createdRaw); err != nil {
			return nil, fmt.Errorf("failed to scan quarantine record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			q.CreatedAt = t
		}
		records = append(records, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quarantine records: %w", err)
	}

	return records, nil
}

func (s *SQLiteMappingStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
