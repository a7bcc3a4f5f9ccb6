package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

// sourceStateSelectColumns lists columns for SELECT queries on legal_source_state.
const sourceStateSelectColumns = `source_id, last_sync_at, last_record_count, total_documents,
	consecutive_empty, error_count, last_error, created_at, updated_at`

// ErrSourceStateNotFound is returned when no state row exists for a source.
var ErrSourceStateNotFound = errors.New("source state not found")

// SourceStateRepository handles database operations for harvest state.
type SourceStateRepository struct {
	db *sqlx.DB
}

// NewSourceStateRepository creates a new source state repository.
func NewSourceStateRepository(db *sqlx.DB) *SourceStateRepository {
	return &SourceStateRepository{db: db}
}

// GetOrCreate returns the state of a source, creating a default row if none exists.
// Uses INSERT ... ON CONFLICT DO NOTHING then SELECT.
func (r *SourceStateRepository) GetOrCreate(ctx context.Context, sourceID string) (*domain.SourceState, error) {
	if err := r.ensure(ctx, sourceID); err != nil {
		return nil, err
	}

	selectQuery := `SELECT ` + sourceStateSelectColumns + ` FROM legal_source_state WHERE source_id = $1`

	var state domain.SourceState
	if err := r.db.GetContext(ctx, &state, selectQuery, sourceID); err != nil {
		return nil, fmt.Errorf("failed to select source state: %w", err)
	}

	return &state, nil
}

// RecordRun folds a harvest outcome into the source state and returns the
// updated row. consecutive_empty resets on any non-empty run; a NULL error
// clears last_error.
func (r *SourceStateRepository) RecordRun(
	ctx context.Context, sourceID string, result domain.RunResult,
) (*domain.SourceState, error) {
	if err := r.ensure(ctx, sourceID); err != nil {
		return nil, err
	}

	query := `
		UPDATE legal_source_state
		SET last_sync_at = $2,
			last_record_count = $3,
			total_documents = total_documents + $4,
			consecutive_empty = CASE WHEN $3 = 0 THEN consecutive_empty + 1 ELSE 0 END,
			error_count = error_count + CASE WHEN $5::text IS NULL THEN 0 ELSE 1 END,
			last_error = $5,
			updated_at = NOW()
		WHERE source_id = $1
		RETURNING ` + sourceStateSelectColumns

	var state domain.SourceState
	err := r.db.GetContext(ctx, &state, query, sourceID, result.At, result.Records, result.New, result.Err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSourceStateNotFound, sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	return &state, nil
}

// List returns every source state ordered by source id.
func (r *SourceStateRepository) List(ctx context.Context) ([]*domain.SourceState, error) {
	query := `SELECT ` + sourceStateSelectColumns + ` FROM legal_source_state ORDER BY source_id`

	var states []*domain.SourceState
	if err := r.db.SelectContext(ctx, &states, query); err != nil {
		return nil, fmt.Errorf("failed to list source states: %w", err)
	}

	if states == nil {
		states = []*domain.SourceState{}
	}

	return states, nil
}

// Reset clears the counters of a source so the next scheduler tick treats it
// as never synced.
func (r *SourceStateRepository) Reset(ctx context.Context, sourceID string) error {
	query := `
		UPDATE legal_source_state
		SET last_sync_at = NULL, consecutive_empty = 0, last_error = NULL, updated_at = NOW()
		WHERE source_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, sourceID)
	return execRequireRows(result, err, fmt.Errorf("%w: %s", ErrSourceStateNotFound, sourceID))
}

func (r *SourceStateRepository) ensure(ctx context.Context, sourceID string) error {
	insertQuery := `INSERT INTO legal_source_state (source_id) VALUES ($1) ON CONFLICT (source_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, insertQuery, sourceID); err != nil {
		return fmt.Errorf("failed to insert source state: %w", err)
	}
	return nil
}
