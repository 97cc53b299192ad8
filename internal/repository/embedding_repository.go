package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// embeddingSetID keys the single embeddings document.
const embeddingSetID = "current"

// EmbeddingRepository stores the face embeddings document.
type EmbeddingRepository struct {
	db *sqlx.DB
}

// NewEmbeddingRepository constructs the repository.
func NewEmbeddingRepository(db *sqlx.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Upsert replaces the stored embeddings.
func (r *EmbeddingRepository) Upsert(ctx context.Context, embeddings models.Embeddings, updatedAt time.Time) (*models.EmbeddingSet, error) {
	set := &models.EmbeddingSet{ID: embeddingSetID, Embeddings: embeddings, LastUpdated: updatedAt}
	const query = `INSERT INTO embeddings (id, embeddings, last_updated) VALUES (:id, :embeddings, :last_updated)
        ON CONFLICT (id) DO UPDATE SET embeddings = EXCLUDED.embeddings, last_updated = EXCLUDED.last_updated`
	if _, err := r.db.NamedExecContext(ctx, query, set); err != nil {
		return nil, fmt.Errorf("upsert embeddings: %w", err)
	}
	return set, nil
}

// Latest returns the stored embeddings or sql.ErrNoRows.
func (r *EmbeddingRepository) Latest(ctx context.Context) (*models.EmbeddingSet, error) {
	const query = `SELECT id, embeddings, last_updated FROM embeddings ORDER BY last_updated DESC LIMIT 1`
	var set models.EmbeddingSet
	if err := r.db.GetContext(ctx, &set, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("latest embeddings: %w", err)
	}
	return &set, nil
}
