package handlers

import (
	"net/http"
	"time"

	"camionback/models"
	"camionback/services/authz"
	"camionback/services/offer"
	"camionback/services/request"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

// RequestHandler serves the client and transporter side of transport requests.
type RequestHandler struct {
	Requests request.RequestService
	Offers   offer.OfferService
	Gate     *authz.Gate
}

// load fetches the :id request and checks the caller may perform action on it.
func (h *RequestHandler) load(c *gin.Context, p authz.Principal, action authz.Action) (*models.TransportRequest, bool) {
	req, err := h.Requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return nil, false
	}
	if !authorize(c, h.Gate, p, action, authz.ResourceRequest, req) {
		return nil, false
	}
	return req, true
}

// redact shapes a request for the caller's role.
func redact(p authz.Principal, req models.TransportRequest) models.TransportRequest {
	switch {
	case p.Role.Staff():
		return req
	case p.Role == models.RoleTransporter:
		return request.ForTransporter(req, p.UserID)
	default:
		return request.ForClient(req)
	}
}

func redactAll(p authz.Principal, reqs []models.TransportRequest) []models.TransportRequest {
	out := make([]models.TransportRequest, len(reqs))
	for i, r := range reqs {
		out[i] = redact(p, r)
	}
	return out
}

func (h *RequestHandler) respond(c *gin.Context, p authz.Principal, req *models.TransportRequest, err error) {
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": redact(p, *req)})
}

func (h *RequestHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in request.CreateInput
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.Create(c.Request.Context(), p.UserID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": redact(p, *req)})
}

func (h *RequestHandler) ListMine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	reqs, err := h.Requests.ListForClient(c.Request.Context(), p.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": redactAll(p, reqs)})
}

func (h *RequestHandler) ListMarket(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	reqs, err := h.Requests.ListMarket(c.Request.Context(), request.MarketFilter{
		TransporterID: p.UserID,
		FromCity:      c.Query("fromCity"),
		ToCity:        c.Query("toCity"),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (h *RequestHandler) ListAssigned(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	reqs, err := h.Requests.ListAssigned(c.Request.Context(), p.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": redactAll(p, reqs)})
}

func (h *RequestHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, ok := h.load(c, p, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": redact(p, *req)})
}

func (h *RequestHandler) Choose(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionChoose); !ok {
		return
	}
	var in struct {
		TransporterID string `json:"transporterId" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.ChooseTransporter(c.Request.Context(), p.UserID, c.Param("id"), in.TransporterID)
	h.respond(c, p, req, err)
}

func (h *RequestHandler) MarkAsPaid(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionPay); !ok {
		return
	}
	var in struct {
		Receipt string `json:"paymentReceipt" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.MarkAsPaid(c.Request.Context(), p.UserID, c.Param("id"), in.Receipt)
	h.respond(c, p, req, err)
}

func (h *RequestHandler) Complete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionRate); !ok {
		return
	}
	var in request.RatingInput
	if !bind(c, &in) {
		return
	}
	req, err := h.Requests.CompleteWithRating(c.Request.Context(), p.UserID, c.Param("id"), in)
	h.respond(c, p, req, err)
}

func (h *RequestHandler) Republish(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionUpdate); !ok {
		return
	}
	var in struct {
		DateTime *time.Time `json:"dateTime"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	req, err := h.Requests.Republish(c.Request.Context(), p.UserID, c.Param("id"), in.DateTime)
	h.respond(c, p, req, err)
}

func (h *RequestHandler) Report(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionReport); !ok {
		return
	}
	var in request.ReportInput
	if !bind(c, &in) {
		return
	}
	report, err := h.Requests.FileReport(c.Request.Context(), request.Actor{ID: p.UserID, Role: p.Role}, c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

func (h *RequestHandler) ExpressInterest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionInterest); !ok {
		return
	}
	req, err := h.Requests.ExpressInterest(c.Request.Context(), p.UserID, c.Param("id"))
	h.respond(c, p, req, err)
}

func (h *RequestHandler) WithdrawInterest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, err := h.Requests.WithdrawInterest(c.Request.Context(), p.UserID, c.Param("id"))
	h.respond(c, p, req, err)
}

// QRCode returns the PNG handed to the driver at pickup. Only the client,
// the assigned transporter and staff may fetch it.
func (h *RequestHandler) QRCode(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, err := h.Requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !p.Role.Staff() && req.ClientID != p.UserID && req.AssignedTransporterID != p.UserID {
		utils.JSONError(c, http.StatusForbidden, "Access denied")
		return
	}
	png, err := request.TrackingQR(req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *RequestHandler) SubmitOffer(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionOffer); !ok {
		return
	}
	var in offer.SubmitInput
	if !bind(c, &in) {
		return
	}
	o, err := h.Offers.Submit(c.Request.Context(), p.UserID, c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"offer": o})
}

func (h *RequestHandler) ListOffers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if _, ok := h.load(c, p, authz.ActionView); !ok {
		return
	}
	offers, err := h.Offers.ListForRequest(c.Request.Context(), offer.Viewer{ID: p.UserID, Role: p.Role}, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}
