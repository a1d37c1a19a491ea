package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RoleAdmin is the role claim required by the admin endpoints.
const RoleAdmin = "admin"

// RequireRole rejects requests whose authenticated role differs from role.
// It must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, _ := c.Get(ContextRole)
		if got != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Admin role required for this endpoint",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin chains token validation and the admin role check.
func (am *AuthMiddleware) RequireAdmin() []gin.HandlerFunc {
	return []gin.HandlerFunc{am.RequireAuth(), RequireRole(RoleAdmin)}
}
