package handlers

import (
	"net/http"

	"camionback/middleware"
	"camionback/models"
	"camionback/services/admin"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves reference data the apps read before or after login.
type PublicHandler struct {
	Admin admin.AdminService
}

func (h *PublicHandler) ListCities(c *gin.Context) {
	cities, err := h.Admin.ListCities(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// ListStories returns active stories, narrowed to the caller's role when the
// request is authenticated.
func (h *PublicHandler) ListStories(c *gin.Context) {
	role := models.Role(c.Query("audience"))
	if p, ok := middleware.GetPrincipal(c); ok {
		role = p.Role
	}
	stories, err := h.Admin.ListStories(c.Request.Context(), true, role)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (h *PublicHandler) Legal(c *gin.Context) {
	role := models.Role(c.Query("role"))
	if role == models.RoleNone {
		c.JSON(http.StatusOK, gin.H{"sections": h.Admin.GetLegalSections()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": h.Admin.GetLegalSectionsFor(role)})
}

func (h *PublicHandler) Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
