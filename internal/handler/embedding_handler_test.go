package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/internal/service"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type embeddingServiceMock struct {
	latest     *models.EmbeddingSet
	latestErr  error
	saved      models.Embeddings
	rebuildErr error
}

func (m *embeddingServiceMock) Save(ctx context.Context, req dto.SaveEmbeddingsRequest) (*models.EmbeddingSet, error) {
	m.saved = req.Embeddings
	return &models.EmbeddingSet{Embeddings: req.Embeddings, LastUpdated: time.Now()}, nil
}

func (m *embeddingServiceMock) Latest(ctx context.Context) (*models.EmbeddingSet, error) {
	return m.latest, m.latestErr
}

func (m *embeddingServiceMock) EnqueueRebuild(ctx context.Context) (*dto.RebuildEmbeddingsResponse, error) {
	if m.rebuildErr != nil {
		return nil, m.rebuildErr
	}
	return &dto.RebuildEmbeddingsResponse{JobID: "job-1", Status: "QUEUED"}, nil
}

func TestEmbeddingHandlerSave(t *testing.T) {
	svc := &embeddingServiceMock{}
	h := NewEmbeddingHandler(svc)

	body := dto.SaveEmbeddingsRequest{Embeddings: models.Embeddings{"S1": {{0.1, 0.2}}}}
	w := serve(t, http.MethodPost, "/embeddings/save", "/embeddings/save", body, nil, h.Save)
	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, svc.saved, "S1")
}

func TestEmbeddingHandlerLatestMissing(t *testing.T) {
	h := NewEmbeddingHandler(&embeddingServiceMock{latestErr: service.ErrNoEmbeddings})

	w := serve(t, http.MethodGet, "/embeddings/latest", "/embeddings/latest", nil, nil, h.Latest)
	assertStatus(t, w, http.StatusNotFound)
	env := decode(t, w, nil)
	assert.Equal(t, "No embeddings found", env.Error.Message)
}

func TestEmbeddingHandlerLatest(t *testing.T) {
	h := NewEmbeddingHandler(&embeddingServiceMock{latest: &models.EmbeddingSet{Embeddings: models.Embeddings{"S1": {{1}}}}})

	w := serve(t, http.MethodGet, "/embeddings/latest", "/embeddings/latest", nil, nil, h.Latest)
	assertStatus(t, w, http.StatusOK)
	var res dto.EmbeddingsResponse
	decode(t, w, &res)
	assert.Equal(t, [][]float64{{1}}, res.Embeddings["S1"])
}

func TestEmbeddingHandlerRebuild(t *testing.T) {
	svc := &embeddingServiceMock{}
	h := NewEmbeddingHandler(svc)

	w := serve(t, http.MethodPost, "/embeddings/rebuild", "/embeddings/rebuild", nil, adminClaims, h.Rebuild)
	assertStatus(t, w, http.StatusAccepted)

	svc.rebuildErr = appErrors.Clone(appErrors.ErrServiceUnavailable, "rebuild queue unavailable")
	w = serve(t, http.MethodPost, "/embeddings/rebuild", "/embeddings/rebuild", nil, adminClaims, h.Rebuild)
	assertStatus(t, w, http.StatusServiceUnavailable)
}
