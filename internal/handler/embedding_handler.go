package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type embeddingService interface {
	Save(ctx context.Context, req dto.SaveEmbeddingsRequest) (*models.EmbeddingSet, error)
	Latest(ctx context.Context) (*models.EmbeddingSet, error)
	EnqueueRebuild(ctx context.Context) (*dto.RebuildEmbeddingsResponse, error)
}

// EmbeddingHandler manages the face embeddings document.
type EmbeddingHandler struct {
	service embeddingService
}

// NewEmbeddingHandler constructs an embedding handler.
func NewEmbeddingHandler(svc embeddingService) *EmbeddingHandler {
	return &EmbeddingHandler{service: svc}
}

// Save godoc
// @Summary Replace the stored embeddings
// @Tags Embeddings
// @Accept json
// @Produce json
// @Param payload body dto.SaveEmbeddingsRequest true "Embeddings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /embeddings/save [post]
func (h *EmbeddingHandler) Save(c *gin.Context) {
	var req dto.SaveEmbeddingsRequest
	if err := bindJSON(c, &req, "invalid embeddings payload"); err != nil {
		response.Error(c, err)
		return
	}
	set, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toEmbeddingsResponse(set), nil)
}

// Latest godoc
// @Summary Latest embeddings
// @Tags Embeddings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /embeddings/latest [get]
func (h *EmbeddingHandler) Latest(c *gin.Context) {
	set, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, toEmbeddingsResponse(set), nil)
}

// Rebuild godoc
// @Summary Regenerate embeddings from registered faces
// @Tags Embeddings
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /embeddings/rebuild [post]
func (h *EmbeddingHandler) Rebuild(c *gin.Context) {
	res, err := h.service.EnqueueRebuild(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, res)
}

func toEmbeddingsResponse(set *models.EmbeddingSet) dto.EmbeddingsResponse {
	return dto.EmbeddingsResponse{Embeddings: set.Embeddings, LastUpdated: set.LastUpdated}
}
