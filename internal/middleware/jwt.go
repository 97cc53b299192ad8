package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid, unrevoked access token.
func JWT(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a valid token is present but never blocks.
// Used when AUTH_ENABLED is false so handlers still see the caller if known.
func OptionalJWT(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c.GetHeader("Authorization")); err == nil {
			if claims, err := validator.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set(ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

// Claims returns the authenticated caller, or nil.
func Claims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
