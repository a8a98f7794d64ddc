package middleware

import (
	"errors"
	"net/http"
	"strings"

	"camionback/database/repository"
	"camionback/models"
	"camionback/services/authz"
	"camionback/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by RequireAuth.
const (
	PrincipalKey = "principal"
	UserKey      = "user"
	SessionKey   = "sessionID"
)

// Authenticator resolves the session cookie to a live account.
type Authenticator struct {
	Users    repository.UserRepository
	Sessions utils.SessionStore
	Secret   []byte
	Logger   *zap.Logger
}

// sessionToken reads the cookie, falling back to a bearer header for API
// clients that cannot keep cookies.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(utils.SessionCookieName); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireAuth rejects anonymous calls with 401 and blocked accounts with 403.
// The user is reloaded on every call so a block or validation takes effect
// without waiting for the session to expire.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		sessionID, userID, err := utils.ParseSessionToken(a.Secret, token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid session")
			return
		}

		session, err := a.Sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, utils.ErrSessionNotFound) {
				a.Logger.Error("session lookup failed", zap.Error(err))
			}
			utils.JSONError(c, http.StatusUnauthorized, "Session expired")
			return
		}
		if session.UserID != userID {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid session")
			return
		}

		user, err := a.Users.GetByID(c.Request.Context(), userID)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Account not found")
			return
		}
		if user.Blocked() {
			utils.JSONError(c, http.StatusForbidden, "Account blocked")
			return
		}

		c.Set(SessionKey, sessionID)
		c.Set(UserKey, user)
		c.Set(PrincipalKey, authz.Principal{
			UserID:      user.ID,
			Role:        user.Role,
			PhoneNumber: user.PhoneNumber,
			Validated:   user.CanWork(),
		})
		c.Next()
	}
}

// GetPrincipal returns the caller set by RequireAuth.
func GetPrincipal(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok
}

// GetUser returns the account loaded by RequireAuth.
func GetUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}
