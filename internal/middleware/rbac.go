package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

// RequireRoles admits callers holding one of the roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return RoleOrSelf("", roles...)
}

// RoleOrSelf admits callers holding one of the roles, or whose user id equals
// the named path parameter. An empty param disables the self check.
func RoleOrSelf(param string, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		if param != "" && c.Param(param) != "" && c.Param(param) == claims.UserID {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
