package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"camionback/middleware"
	"camionback/services/authz"
	"camionback/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves a Zap logger from the Gin context or falls back to the
// global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// principal returns the caller. Routes using it sit behind RequireAuth, so a
// missing principal is answered like RequireRole does.
func principal(c *gin.Context) (authz.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		getLogger(c).Error("handler reached without authentication", zap.String("path", c.FullPath()))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error")
	}
	return p, ok
}

// bind decodes the JSON body into dst and answers 400 on failure.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// authorize answers 403 when the gate refuses p.
func authorize(c *gin.Context, gate *authz.Gate, p authz.Principal, action authz.Action, resourceType string, resource any) bool {
	err := gate.Authorize(c.Request.Context(), p, action, resourceType, resource)
	if err == nil {
		return true
	}
	if errors.Is(err, authz.ErrNoPolicyDefined) {
		getLogger(c).Error("no policy registered", zap.String("resource", resourceType))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error")
		return false
	}
	utils.JSONError(c, http.StatusForbidden, "Access denied")
	return false
}

func queryLimit(c *gin.Context) int64 {
	n, err := strconv.ParseInt(c.Query("limit"), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func success(c *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
