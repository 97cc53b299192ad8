package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/middleware"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func bindJSON(c *gin.Context, dest interface{}, msg string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg)
	}
	return nil
}

// queryInt parses an optional integer query parameter. Missing values yield 0.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be an integer")
	}
	return v, nil
}
