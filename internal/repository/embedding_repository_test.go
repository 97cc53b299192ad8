package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

func TestEmbeddingRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEmbeddingRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET embeddings = EXCLUDED.embeddings")).
		WithArgs("current", []byte(`{"Ada":[[0.1,0.2]]}`), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	set, err := repo.Upsert(context.Background(), models.Embeddings{"Ada": {{0.1, 0.2}}}, now)
	require.NoError(t, err)
	assert.Equal(t, "current", set.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddingRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEmbeddingRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, embeddings, last_updated FROM embeddings ORDER BY last_updated DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "embeddings", "last_updated"}).AddRow("current", []byte(`{"Ada":[[0.5]]}`), now))
	mock.ExpectQuery("FROM embeddings").WillReturnError(sql.ErrNoRows)

	set, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5}}, set.Embeddings["Ada"])

	_, err = repo.Latest(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
