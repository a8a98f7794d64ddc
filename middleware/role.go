package middleware

import (
	"net/http"

	"camionback/models"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth. Missing auth is a wiring mistake
// and answers 500 rather than letting the call through.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			utils.GetLogger().Error("role check without authentication")
			utils.JSONError(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, "Access denied")
	}
}

// RequireStaff admits coordinators and admins.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.RoleCoordinator, models.RoleAdmin)
}
