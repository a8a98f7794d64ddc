package handlers

import (
	"net/http"

	"camionback/models"
	"camionback/services/offer"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

// OfferHandler serves bids and contracts outside a request path.
type OfferHandler struct {
	Offers offer.OfferService
}

func (h *OfferHandler) ListMine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	offers, err := h.Offers.ListMine(c.Request.Context(), p.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// Accept is open to the owning client and to staff; the service checks
// ownership against the stored request.
func (h *OfferHandler) Accept(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.Offers.Accept(c.Request.Context(), offer.Viewer{ID: p.UserID, Role: p.Role}, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OfferHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Offers.Delete(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

func (h *OfferHandler) ListContracts(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var clientID, transporterID string
	switch p.Role {
	case models.RoleClient:
		clientID = p.UserID
	case models.RoleTransporter:
		transporterID = p.UserID
	default:
		clientID, transporterID = c.Query("clientId"), c.Query("transporterId")
	}
	contracts, err := h.Offers.ListContracts(c.Request.Context(), clientID, transporterID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}
