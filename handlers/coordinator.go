package handlers

import (
	"net/http"

	"camionback/models"
	"camionback/services/request"
	"camionback/services/transporter"
	"camionback/services/workflow"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

// CoordinatorHandler is the staff dashboard. Every route sits behind
// RequireStaff.
type CoordinatorHandler struct {
	Requests     request.RequestService
	Transporters transporter.TransporterService
}

type reasonBody struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *CoordinatorHandler) respond(c *gin.Context, req *models.TransportRequest, err error) {
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (h *CoordinatorHandler) List(c *gin.Context) {
	category := workflow.Category(c.Query("category"))
	filter := models.RequestFilter{
		FromCity:     c.Query("fromCity"),
		ToCity:       c.Query("toCity"),
		ClientID:     c.Query("clientId"),
		AssignedToID: c.Query("coordinatorId"),
		Limit:        queryLimit(c),
	}
	if c.Query("mine") == "true" {
		if p, ok := principal(c); ok {
			filter.AssignedToID = p.UserID
		} else {
			return
		}
	}
	views, err := h.Requests.ListByCategory(c.Request.Context(), category, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

func (h *CoordinatorHandler) Detail(c *gin.Context) {
	detail, err := h.Requests.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *CoordinatorHandler) Qualify(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in request.QualifyInput
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.Qualify(c.Request.Context(), p.UserID, c.Param("id"), in)
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) Publish(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, err := h.Requests.Publish(c.Request.Context(), p.UserID, c.Param("id"))
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) Assign(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in request.AssignInput
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.AssignManually(c.Request.Context(), p.UserID, c.Param("id"), in)
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) MarkForBilling(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, err := h.Requests.MarkForBilling(c.Request.Context(), p.UserID, c.Param("id"))
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) UpdateCoordination(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in request.CoordinationInput
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.UpdateCoordination(c.Request.Context(), p.UserID, c.Param("id"), in)
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) AssignCoordinator(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		CoordinatorID string `json:"coordinatorId"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	if in.CoordinatorID == "" {
		in.CoordinatorID = p.UserID
	}
	req, err := h.Requests.AssignCoordinator(c.Request.Context(), p.UserID, c.Param("id"), in.CoordinatorID)
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) Archive(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in reasonBody
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.Archive(c.Request.Context(), p.UserID, c.Param("id"), in.Reason)
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) Requalify(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, err := h.Requests.Requalify(c.Request.Context(), p.UserID, c.Param("id"))
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) Cancel(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in reasonBody
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.Cancel(c.Request.Context(), request.Actor{ID: p.UserID, Role: p.Role}, c.Param("id"), in.Reason)
	h.respond(c, req, err)
}

func (h *CoordinatorHandler) AddNote(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		Content string `json:"content" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	note, err := h.Requests.AddNote(c.Request.Context(), request.Actor{ID: p.UserID, Role: p.Role}, c.Param("id"), in.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": note})
}

func (h *CoordinatorHandler) ListNotes(c *gin.Context) {
	notes, err := h.Requests.ListNotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *CoordinatorHandler) Interested(c *gin.Context) {
	users, err := h.Requests.InterestedTransporters(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transporters": users})
}

func (h *CoordinatorHandler) Recommendations(c *gin.Context) {
	recs, err := h.Transporters.Recommendations(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *CoordinatorHandler) ListTransporters(c *gin.Context) {
	users, err := h.Transporters.ListTransporters(c.Request.Context(), models.TransporterStatus(c.Query("status")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transporters": users})
}

func (h *CoordinatorHandler) ListEmptyReturns(c *gin.Context) {
	rows, err := h.Transporters.ListActiveEmptyReturns(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emptyReturns": rows})
}

func (h *CoordinatorHandler) AddReference(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in transporter.ReferenceInput
	if !bind(c, &in) {
		return
	}
	ref, err := h.Transporters.AddReference(c.Request.Context(), p.UserID, c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reference": ref})
}

func (h *CoordinatorHandler) ListReferences(c *gin.Context) {
	refs, err := h.Transporters.ListReferences(c.Request.Context(), c.Param("id"), models.ReferenceStatus(c.Query("status")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"references": refs})
}

func (h *CoordinatorHandler) ReviewReference(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		Approve *bool  `json:"approve" binding:"required"`
		Notes   string `json:"notes"`
	}
	if !bind(c, &in) {
		return
	}
	ref, err := h.Transporters.ReviewReference(c.Request.Context(), p.UserID, c.Param("refId"), *in.Approve, in.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": ref})
}
