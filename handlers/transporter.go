package handlers

import (
	"net/http"

	"camionback/services/transporter"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

// TransporterHandler serves empty return declarations and ratings.
type TransporterHandler struct {
	Transporters transporter.TransporterService
}

func (h *TransporterHandler) DeclareEmptyReturn(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in transporter.EmptyReturnInput
	if !bind(c, &in) {
		return
	}
	er, err := h.Transporters.DeclareEmptyReturn(c.Request.Context(), p.UserID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"emptyReturn": er})
}

func (h *TransporterHandler) ListMyEmptyReturns(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	rows, err := h.Transporters.ListMyEmptyReturns(c.Request.Context(), p.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emptyReturns": rows})
}

func (h *TransporterHandler) DeleteEmptyReturn(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Transporters.DeleteEmptyReturn(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

func (h *TransporterHandler) ListRatings(c *gin.Context) {
	ratings, err := h.Transporters.ListRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}
