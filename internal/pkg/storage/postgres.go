package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"sportsync/internal/pkg/config"
)

var _ MappingStore = (*PostgresMappingStore)(nil)

// PostgresMappingStore stores published mappings in PostgreSQL.
type PostgresMappingStore struct {
	db *sql.DB
}

// NewPostgresMappingStore creates a PostgreSQL mapping store.
func NewPostgresMappingStore(cfg *config.PostgresConfig) (*PostgresMappingStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresMappingStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL mapping store initialized")
	return store, nil
}

func (s *PostgresMappingStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS entity_mappings (
		id SERIAL PRIMARY KEY,
		entity VARCHAR(20) NOT NULL,
		durable_id VARCHAR(500) NOT NULL,
		name_prefix VARCHAR(500) NOT NULL,
		minted_index INTEGER NOT NULL,
		partition_key VARCHAR(500) NOT NULL DEFAULT '',
		provider VARCHAR(100) NOT NULL,
		object_id VARCHAR(500) NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(entity, provider, object_id)
	);

	CREATE INDEX IF NOT EXISTS idx_entity_mappings_durable_id ON entity_mappings(entity, durable_id);
	CREATE INDEX IF NOT EXISTS idx_entity_mappings_minted ON entity_mappings(entity, partition_key, name_prefix, minted_index DESC);

	CREATE TABLE IF NOT EXISTS quarantine_records (
		id VARCHAR(36) PRIMARY KEY,
		run_id VARCHAR(36) NOT NULL,
		entity VARCHAR(20) NOT NULL,
		provider VARCHAR(100) NOT NULL,
		object_id VARCHAR(500) NOT NULL,
		reason VARCHAR(500) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_quarantine_records_run_id ON quarantine_records(run_id);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// ListMappings returns all published mappings for an entity, one Mapping
// per durable identifier with its provider identifiers merged.
func (s *PostgresMappingStore) ListMappings(ctx context.Context, entity string) ([]Mapping, error) {
	query := `
	SELECT durable_id, name_prefix, minted_index, partition_key, provider, object_id, updated_at
	FROM entity_mappings
	WHERE entity = $1
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
			durableID, prefix, partition, provider, objectID string
			index                                            int
			updatedAt                                        time.Time
		)
		if err := rows.Scan(&durableID, &prefix, &index, &partition, &provider, &objectID, &updatedAt); err != nil {
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
		if updatedAt.After(current.UpdatedAt) {
			current.UpdatedAt = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappings: %w", err)
	}

	return mappings, nil
}

// SaveMapping upserts one mapping, one row per provider identifier.
func (s *PostgresMappingStore) SaveMapping(ctx context.Context, m *Mapping) error {
	query := `
	INSERT INTO entity_mappings (
		entity, durable_id, name_prefix, minted_index, partition_key, provider, object_id, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	ON CONFLICT (entity, provider, object_id) DO UPDATE
	SET durable_id = EXCLUDED.durable_id,
	    name_prefix = EXCLUDED.name_prefix,
	    minted_index = EXCLUDED.minted_index,
	    partition_key = EXCLUDED.partition_key,
	    updated_at = NOW()
	`

	for provider, objectID := range m.ProviderIDs {
		if _, err := s.db.ExecContext(ctx, query,
			m.Entity, m.DurableID, m.NamePrefix, m.MintedIndex, m.Partition, provider, objectID,
		); err != nil {
			return fmt.Errorf("failed to save mapping %s: %w", m.DurableID, err)
		}
	}

	return nil
}

// MaxMintedIndex returns the highest minted index for a prefix within a
// partition, or 0 when the prefix has never been minted.
func (s *PostgresMappingStore) MaxMintedIndex(ctx context.Context, entity, partition, prefix string) (int, error) {
	query := `
	SELECT COALESCE(MAX(minted_index), 0)
	FROM entity_mappings
	WHERE entity = $1 AND partition_key = $2 AND name_prefix = $3
	`

	var maxIndex int
	if err := s.db.QueryRowContext(ctx, query, entity, partition, prefix).Scan(&maxIndex); err != nil {
		return 0, fmt.Errorf("failed to query max minted index: %w", err)
	}

	return maxIndex, nil
}

// StoreQuarantine records a knocked-out provider identifier.
func (s *PostgresMappingStore) StoreQuarantine(ctx context.Context, q *QuarantineRecord) error {
	query := `
	INSERT INTO quarantine_records (id, run_id, entity, provider, object_id, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := s.db.ExecContext(ctx, query,
		q.ID, q.RunID, q.Entity, q.Provider, q.ObjectID, q.Reason, q.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to store quarantine record: %w", err)
	}

	return nil
}

// ListQuarantine returns the quarantine records of one run.
func (s *PostgresMappingStore) ListQuarantine(ctx context.Context, runID string) ([]QuarantineRecord, error) {
	query := `
	SELECT id, run_id, entity, provider, object_id, reason, created_at
	FROM quarantine_records
	WHERE run_id = $1
	ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarantine records: %w", err)
	}
	defer rows.Close()

	var records []QuarantineRecord
	for rows.Next() {
		var q QuarantineRecord
		if err := rows.Scan(&q.ID, &q.RunID, &q.Entity, &q.Provider, &q.ObjectID, &q.Reason, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quarantine record: %w", err)
		}
		records = append(records, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quarantine records: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (s *PostgresMappingStore) Close() error {
	return s.db.Close()
}
