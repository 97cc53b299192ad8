package dto

import (
	"time"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// SaveEmbeddingsRequest replaces the stored embeddings document.
type SaveEmbeddingsRequest struct {
	Embeddings models.Embeddings `json:"embeddings" validate:"required"`
}

// EmbeddingsResponse returns the stored embeddings document.
type EmbeddingsResponse struct {
	Embeddings  models.Embeddings `json:"embeddings"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// RebuildEmbeddingsResponse identifies an enqueued rebuild.
type RebuildEmbeddingsResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}
