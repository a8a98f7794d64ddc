package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"camionback/models"
	"camionback/services/authz"
	"camionback/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func roleEngine(pre gin.HandlerFunc, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{}
	if pre != nil {
		handlers = append(handlers, pre)
	}
	handlers = append(handlers, RequireRole(roles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/guarded", handlers...)
	return r
}

func serve(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	return w
}

func as(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(PrincipalKey, authz.Principal{UserID: "u1", Role: role})
		c.Next()
	}
}

func TestRequireRoleWithoutAuthIsServerError(t *testing.T) {
	utils.Logger = zap.NewNop()

	w := serve(roleEngine(nil, models.RoleClient))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestRequireRole(t *testing.T) {
	utils.Logger = zap.NewNop()

	assert.Equal(t, http.StatusNoContent, serve(roleEngine(as(models.RoleClient), models.RoleClient)).Code)
	assert.Equal(t, http.StatusForbidden, serve(roleEngine(as(models.RoleTransporter), models.RoleClient)).Code)
	assert.Equal(t, http.StatusForbidden, serve(roleEngine(as(models.RoleClient), models.RoleCoordinator, models.RoleAdmin)).Code)
}
