package handlers

import (
	"fmt"
	"net/http"
	"time"

	"camionback/database/repository"
	"camionback/models"
	"camionback/services/admin"
	"camionback/services/notification"
	"camionback/services/offer"
	"camionback/services/pricing"
	"camionback/services/request"
	"camionback/services/user"
	"camionback/services/workflow"
	"camionback/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler is the governance surface. Every route sits behind
// RequireRole(admin).
type AdminHandler struct {
	Admin    admin.AdminService
	Users    user.UserService
	Requests request.RequestService
	Offers   offer.OfferService
}

// Users

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Users.ListUsers(c.Request.Context(), models.UserFilter{
		Role:          models.Role(c.Query("role")),
		Status:        models.TransporterStatus(c.Query("status")),
		AccountStatus: models.AccountStatus(c.Query("accountStatus")),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) ValidateTransporter(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	u, err := h.Users.ValidateTransporter(c.Request.Context(), p.UserID, c.Param("id"), *in.Approve)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AdminHandler) SetBlocked(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		Blocked *bool `json:"blocked" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	u, err := h.Users.SetBlocked(c.Request.Context(), p.UserID, c.Param("id"), *in.Blocked)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Users.DeleteUser(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

func (h *AdminHandler) CreateStaff(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in user.StaffInput
	if !bind(c, &in) {
		return
	}
	u, err := h.Users.CreateStaff(c.Request.Context(), p.UserID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// Payments

func (h *AdminHandler) ListPayments(c *gin.Context) {
	statuses := []workflow.PaymentStatus{workflow.PaymentPendingAdminValidation}
	if s := c.Query("paymentStatus"); s != "" {
		statuses = []workflow.PaymentStatus{workflow.PaymentStatus(s)}
	}
	reqs, err := h.Requests.ListByCategory(c.Request.Context(), "", models.RequestFilter{PaymentStatuses: statuses})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (h *AdminHandler) ValidatePayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		Payer request.Payer `json:"payer"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	if in.Payer == "" {
		in.Payer = request.PayerClient
	}
	req, err := h.Requests.ValidatePayment(c.Request.Context(), p.UserID, c.Param("id"), in.Payer)
	respondRequest(c, req, err)
}

func (h *AdminHandler) RejectPayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	req, err := h.Requests.RejectPayment(c.Request.Context(), p.UserID, c.Param("id"), in.Reason)
	respondRequest(c, req, err)
}

func (h *AdminHandler) SettlePayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, err := h.Requests.SettlePayment(c.Request.Context(), p.UserID, c.Param("id"))
	respondRequest(c, req, err)
}

func (h *AdminHandler) ResetPayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, err := h.Requests.ResetPayment(c.Request.Context(), p.UserID, c.Param("id"))
	respondRequest(c, req, err)
}

func respondRequest(c *gin.Context, req *models.TransportRequest, err error) {
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// Contracts

func (h *AdminHandler) UpdateContract(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		Status models.ContractStatus `json:"status" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	contract, err := h.Offers.UpdateContractStatus(c.Request.Context(), p.UserID, c.Param("id"), in.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// Settings and dashboard

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.Admin.GetSettings(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		CommissionRate *float64 `json:"commissionRate" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	settings, err := h.Admin.UpdateSettings(c.Request.Context(), p.UserID, pricing.Settings{CommissionRate: *in.CommissionRate})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Coordination tags

func (h *AdminHandler) ListCoordinationStatuses(c *gin.Context) {
	list, err := h.Admin.ListCoordinationStatuses(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coordinationStatuses": list})
}

func (h *AdminHandler) CreateCoordinationStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in admin.CoordinationStatusInput
	if !bind(c, &in) {
		return
	}
	tag, err := h.Admin.CreateCoordinationStatus(c.Request.Context(), p.UserID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"coordinationStatus": tag})
}

func (h *AdminHandler) UpdateCoordinationStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in admin.CoordinationStatusInput
	if !bind(c, &in) {
		return
	}
	tag, err := h.Admin.UpdateCoordinationStatus(c.Request.Context(), p.UserID, c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coordinationStatus": tag})
}

func (h *AdminHandler) DeleteCoordinationStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Admin.DeleteCoordinationStatus(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

// Cities and stories

type cityBody struct {
	Name string `json:"name" binding:"required"`
}

func (h *AdminHandler) CreateCity(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in cityBody
	if !bind(c, &in) {
		return
	}
	city, err := h.Admin.CreateCity(c.Request.Context(), p.UserID, in.Name)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"city": city})
}

func (h *AdminHandler) UpdateCity(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in cityBody
	if !bind(c, &in) {
		return
	}
	city, err := h.Admin.UpdateCity(c.Request.Context(), p.UserID, c.Param("id"), in.Name)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city})
}

func (h *AdminHandler) DeleteCity(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Admin.DeleteCity(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

func (h *AdminHandler) ListStories(c *gin.Context) {
	stories, err := h.Admin.ListStories(c.Request.Context(), false, models.RoleNone)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (h *AdminHandler) CreateStory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in admin.StoryInput
	if !bind(c, &in) {
		return
	}
	story, err := h.Admin.CreateStory(c.Request.Context(), p.UserID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"story": story})
}

func (h *AdminHandler) UpdateStory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in admin.StoryInput
	if !bind(c, &in) {
		return
	}
	story, err := h.Admin.UpdateStory(c.Request.Context(), p.UserID, c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"story": story})
}

func (h *AdminHandler) DeleteStory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Admin.DeleteStory(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

// Reports

func (h *AdminHandler) ListReports(c *gin.Context) {
	reports, err := h.Admin.ListReports(c.Request.Context(), models.ReportStatus(c.Query("status")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *AdminHandler) ResolveReport(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		AdminNotes string `json:"adminNotes"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &in) {
		return
	}
	report, err := h.Admin.ResolveReport(c.Request.Context(), p.UserID, c.Param("id"), in.AdminNotes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// SMS and logs

func (h *AdminHandler) SendSMS(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in struct {
		PhoneNumber string `json:"phoneNumber"`
		Audience    string `json:"audience"`
		Message     string `json:"message" binding:"required"`
	}
	if !bind(c, &in) {
		return
	}
	var err error
	if in.Audience != "" {
		err = h.Admin.BroadcastSMS(c.Request.Context(), p.UserID, notification.Audience(in.Audience), in.Message)
	} else {
		err = h.Admin.SendSMS(c.Request.Context(), p.UserID, in.PhoneNumber, in.Message)
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

func (h *AdminHandler) SmsHistory(c *gin.Context) {
	history, err := h.Admin.SmsHistory(c.Request.Context(), queryLimit(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *AdminHandler) ListLogs(c *gin.Context) {
	logs, err := h.Admin.ListLogs(c.Request.Context(), repository.LogFilter{
		CoordinatorID: c.Query("coordinatorId"),
		TargetID:      c.Query("targetId"),
		Limit:         queryLimit(c),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Exports

func attachment(c *gin.Context, prefix string, data []byte) {
	name := fmt.Sprintf("%s-%s.xlsx", prefix, time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *AdminHandler) ExportRequests(c *gin.Context) {
	filter := models.RequestFilter{FromCity: c.Query("fromCity"), ToCity: c.Query("toCity")}
	if s := c.Query("status"); s != "" {
		filter.Statuses = []workflow.RequestStatus{workflow.RequestStatus(s)}
	}
	data, err := h.Admin.ExportRequests(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	attachment(c, "commandes", data)
}

func (h *AdminHandler) ExportPayments(c *gin.Context) {
	data, err := h.Admin.ExportPayments(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	attachment(c, "paiements", data)
}

// Consistency

func (h *AdminHandler) CheckConsistency(c *gin.Context) {
	report, err := h.Requests.CheckConsistency(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) RepairConsistency(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	fixed, err := h.Requests.Repair(c.Request.Context(), p.UserID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, gin.H{"repaired": fixed})
}
