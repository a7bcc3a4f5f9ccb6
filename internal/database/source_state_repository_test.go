package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/database"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

// sourceStateColumns lists the columns returned by legal_source_state queries.
var sourceStateColumns = []string{
	"source_id", "last_sync_at", "last_record_count", "total_documents",
	"consecutive_empty", "error_count", "last_error", "created_at", "updated_at",
}

func newSourceStateRepo(t *testing.T) (*database.SourceStateRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return database.NewSourceStateRepository(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestSourceStateRepository_GetOrCreate_NewSource(t *testing.T) {
	repo, mock := newSourceStateRepo(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO legal_source_state").
		WithArgs("boe").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM legal_source_state WHERE source_id").
		WithArgs("boe").
		WillReturnRows(sqlmock.NewRows(sourceStateColumns).AddRow("boe", nil, 0, 0, 0, 0, nil, now, now))

	state, err := repo.GetOrCreate(context.Background(), "boe")
	require.NoError(t, err)
	assert.Equal(t, "boe", state.SourceID)
	assert.Nil(t, state.LastSyncAt)
	assert.True(t, state.LastSync().IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceStateRepository_GetOrCreate_InsertError(t *testing.T) {
	repo, mock := newSourceStateRepo(t)

	mock.ExpectExec("INSERT INTO legal_source_state").
		WithArgs("boe").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.GetOrCreate(context.Background(), "boe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert source state")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceStateRepository_RecordRun(t *testing.T) {
	repo, mock := newSourceStateRepo(t)
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO legal_source_state").
		WithArgs("eurlex").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE legal_source_state").
		WithArgs("eurlex", at, 3, 2, nil).
		WillReturnRows(sqlmock.NewRows(sourceStateColumns).AddRow("eurlex", at, 3, 42, 0, 1, nil, at, at))

	state, err := repo.RecordRun(context.Background(), "eurlex", domain.RunResult{At: at, Records: 3, New: 2})
	require.NoError(t, err)
	assert.Equal(t, at, state.LastSync())
	assert.Equal(t, 3, state.LastRecordCount)
	assert.Equal(t, int64(42), state.TotalDocuments)
	assert.Nil(t, state.LastError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceStateRepository_RecordRun_WithError(t *testing.T) {
	repo, mock := newSourceStateRepo(t)
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	msg := "publish: stream down"

	mock.ExpectExec("INSERT INTO legal_source_state").
		WithArgs("hudoc").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE legal_source_state").
		WithArgs("hudoc", at, 0, 0, msg).
		WillReturnRows(sqlmock.NewRows(sourceStateColumns).AddRow("hudoc", at, 0, 10, 3, 2, msg, at, at))

	state, err := repo.RecordRun(context.Background(), "hudoc", domain.RunResult{At: at, Err: &msg})
	require.NoError(t, err)
	assert.Equal(t, 3, state.ConsecutiveEmpty)
	require.NotNil(t, state.LastError)
	assert.Equal(t, msg, *state.LastError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceStateRepository_List(t *testing.T) {
	repo, mock := newSourceStateRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM legal_source_state ORDER BY source_id").
		WillReturnRows(sqlmock.NewRows(sourceStateColumns).
			AddRow("boe", now, 12, 100, 0, 0, nil, now, now).
			AddRow("dgt", nil, 0, 0, 2, 0, nil, now, now))

	states, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "boe", states[0].SourceID)
	assert.Equal(t, 2, states[1].ConsecutiveEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceStateRepository_List_Empty(t *testing.T) {
	repo, mock := newSourceStateRepo(t)

	mock.ExpectQuery("SELECT .+ FROM legal_source_state").
		WillReturnRows(sqlmock.NewRows(sourceStateColumns))

	states, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, states)
	assert.Empty(t, states)
}

func TestSourceStateRepository_Reset_NotFound(t *testing.T) {
	repo, mock := newSourceStateRepo(t)

	mock.ExpectExec("UPDATE legal_source_state").
		WithArgs("teac").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Reset(context.Background(), "teac")
	require.ErrorIs(t, err, database.ErrSourceStateNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfig_DSN(t *testing.T) {
	cfg := database.Config{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "legal", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=legal sslmode=disable", cfg.DSN())
}
