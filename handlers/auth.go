package handlers

import (
	"net/http"
	"time"

	"camionback/middleware"
	"camionback/services/user"
	"camionback/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandler manages sessions and the caller's own account.
type AuthHandler struct {
	Users    user.UserService
	Sessions utils.SessionStore
	Secret   []byte
	TTL      time.Duration
	Secure   bool
	// ExposeToken also returns the session token in X-Session-Token for
	// clients that cannot keep cookies. Off by default.
	ExposeToken bool
}

const SessionTokenHeader = "X-Session-Token"

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// openSession stores a server-side session and sets the signed cookie.
func (h *AuthHandler) openSession(c *gin.Context, userID, role, phone string) error {
	sessionID := uuid.New().String()
	now := time.Now()
	err := h.Sessions.Save(c.Request.Context(), sessionID, utils.AuthSession{
		UserID:      userID,
		Role:        role,
		PhoneNumber: phone,
		CreatedAt:   now,
	}, h.TTL)
	if err != nil {
		return err
	}
	token, err := utils.GenerateSessionToken(h.Secret, sessionID, userID, h.TTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookieName, token, int(h.TTL.Seconds()), "/", "", h.Secure, true)
	if h.ExposeToken {
		c.Header(SessionTokenHeader, token)
	}
	return nil
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterInput
	if !bind(c, &req) {
		return
	}
	u, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.openSession(c, u.ID, string(u.Role), u.PhoneNumber); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.Users.Login(c.Request.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.openSession(c, u.ID, string(u.Role), u.PhoneNumber); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if sid, ok := c.Get(middleware.SessionKey); ok {
		if err := h.Sessions.Delete(c.Request.Context(), sid.(string)); err != nil {
			getLogger(c).Warn("failed to delete session", zap.Error(err))
		}
	}
	c.SetCookie(utils.SessionCookieName, "", -1, "/", "", h.Secure, true)
	success(c, nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.GetUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) SelectRole(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req user.SelectRoleInput
	if !bind(c, &req) {
		return
	}
	u, err := h.Users.SelectRole(c.Request.Context(), p.UserID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req user.ProfileUpdate
	if !bind(c, &req) {
		return
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), p.UserID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) UpdateDeviceToken(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		DeviceToken string `json:"deviceToken"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.Users.UpdateDeviceToken(c.Request.Context(), p.UserID, req.DeviceToken); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.Users.ChangePassword(c.Request.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.RespondError(c, err)
		return
	}
	success(c, nil)
}
