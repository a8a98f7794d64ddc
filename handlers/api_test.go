package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"camionback/database/repository"
	"camionback/database/repository/memory"
	"camionback/handlers"
	"camionback/middleware"
	"camionback/routes"
	"camionback/services/admin"
	"camionback/services/audit"
	"camionback/services/authz"
	"camionback/services/notification"
	"camionback/services/offer"
	"camionback/services/request"
	"camionback/services/storage"
	"camionback/services/transporter"
	"camionback/services/user"
	"camionback/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminPhone    = "0600000000"
	adminPassword = "admin-secret"
)

type apiEnv struct {
	t      *testing.T
	router *gin.Engine
	repos  repository.Repos
	auth   *handlers.AuthHandler
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	repos := memory.NewRepos()
	sessions := utils.NewMemorySessionStore()
	secret := []byte("test-secret")

	notifier := notification.NewLocalNotifier(repos, logger)
	dispatcher := notification.NewDispatcher(repos, notification.LogPusher{Logger: logger},
		notification.LogSMSSender{Logger: logger}, notification.LogMailer{Logger: logger}, "", logger)
	recorder := audit.NewRecorder(repos.Audit, logger)
	adminService := admin.NewDefaultAdminService(repos, notifier, dispatcher, recorder, 10, logger)
	offerService := offer.NewDefaultOfferService(repos, notifier, recorder, adminService, logger)
	requestService := request.NewDefaultRequestService(repos, notifier, recorder, nil, logger)
	userService := user.NewDefaultUserService(repos, notifier, recorder, logger)
	transporterService := transporter.NewDefaultTransporterService(repos, recorder, logger)
	require.NoError(t, userService.EnsureAdmin(context.Background(), adminPhone, adminPassword, "Admin"))

	authHandler := &handlers.AuthHandler{Users: userService, Sessions: sessions, Secret: secret, TTL: time.Hour}
	bundle := &handlers.HandlerBundle{
		Auth:          &middleware.Authenticator{Users: repos.Users, Sessions: sessions, Secret: secret, Logger: logger},
		AuthHandler:   authHandler,
		Requests:      &handlers.RequestHandler{Requests: requestService, Offers: offerService, Gate: authz.NewDefaultGate()},
		Offers:        &handlers.OfferHandler{Offers: offerService},
		Coordinator:   &handlers.CoordinatorHandler{Requests: requestService, Transporters: transporterService},
		Admin:         &handlers.AdminHandler{Admin: adminService, Users: userService, Requests: requestService, Offers: offerService},
		Inbox:         &handlers.InboxHandler{Inbox: notification.NewInbox(repos.Notifications)},
		Transporters:  &handlers.TransporterHandler{Transporters: transporterService},
		Public:        &handlers.PublicHandler{Admin: adminService},
		Storage:       &handlers.StorageHandler{StorageSvc: storage.DataURLStorage{}},
		RatePerMinute: 10000,
	}
	router := gin.New()
	routes.RegisterRoutes(router, bundle)
	return &apiEnv{t: t, router: router, repos: repos, auth: authHandler}
}

// sessionCookie returns the session token set by an auth response.
func sessionCookie(w *httptest.ResponseRecorder) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == utils.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

func (e *apiEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

type userBody struct {
	User struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

// signup registers phone, picks role and returns the session token and user id.
func (e *apiEnv) signup(phone, role string) (string, string) {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{"phoneNumber": phone, "password": "secret123"})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	token := sessionCookie(w)
	require.NotEmpty(e.t, token)

	profile := gin.H{"role": role, "name": "User " + phone, "city": "Casablanca"}
	if role == "transporteur" {
		profile["truckType"] = "Plateau"
	}
	w = e.do(http.MethodPost, "/api/auth/select-role", token, profile)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var out userBody
	decode(e.t, w, &out)
	return token, out.User.ID
}

func (e *apiEnv) login(phone, password string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/api/auth/login", "", gin.H{"phoneNumber": phone, "password": password})
}

func (e *apiEnv) adminToken() string {
	w := e.login(adminPhone, adminPassword)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(w)
}

func (e *apiEnv) createRequest(token string) string {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/requests", token, gin.H{
		"fromCity":    "Casablanca",
		"toCity":      "Marrakech",
		"description": "Déménagement",
		"goodsType":   "Meubles",
		"dateTime":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Request struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"request"`
	}
	decode(e.t, w, &out)
	assert.Equal(e.t, "open", out.Request.Status)
	return out.Request.ID
}

func TestUnauthenticatedCallsAreRejected(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodGet, "/api/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/cities", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleGates(t *testing.T) {
	env := newAPIEnv(t)
	clientToken, _ := env.signup("0611111111", "client")
	transporterToken, _ := env.signup("0622222222", "transporteur")

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/coordinator/requests", clientToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/users", transporterToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/requests/market", clientToken, nil).Code)

	w := env.do(http.MethodPost, "/api/requests", transporterToken, gin.H{"fromCity": "Rabat"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/coordinator/requests", env.adminToken(), nil).Code)
}

func TestClientCannotReadAnotherClientsRequest(t *testing.T) {
	env := newAPIEnv(t)
	owner, _ := env.signup("0611111111", "client")
	other, _ := env.signup("0633333333", "client")
	id := env.createRequest(owner)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/requests/"+id, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/requests/"+id, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/requests/missing", owner, nil).Code)
}

func TestOnlyStaffCancelsRequests(t *testing.T) {
	env := newAPIEnv(t)
	clientToken, _ := env.signup("0611111111", "client")
	id := env.createRequest(clientToken)
	body := gin.H{"reason": "changed my mind"}

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/requests/"+id+"/cancel", clientToken, body).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/coordinator/requests/"+id+"/cancel", clientToken, body).Code)

	w := env.do(http.MethodGet, "/api/requests/"+id, clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var still struct {
		Request struct {
			Status string `json:"status"`
		} `json:"request"`
	}
	decode(t, w, &still)
	assert.Equal(t, "open", still.Request.Status)

	w = env.do(http.MethodPost, "/api/coordinator/requests/"+id+"/cancel", env.adminToken(), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled struct {
		Request struct {
			Status             string `json:"status"`
			CoordinationStatus string `json:"coordinationStatus"`
		} `json:"request"`
	}
	decode(t, w, &cancelled)
	assert.Equal(t, "cancelled", cancelled.Request.Status)
	assert.Equal(t, "archive", cancelled.Request.CoordinationStatus)
}

func TestBlockedUserIsLockedOut(t *testing.T) {
	env := newAPIEnv(t)
	clientToken, clientID := env.signup("0611111111", "client")
	adminToken := env.adminToken()

	w := env.do(http.MethodPost, "/api/admin/users/"+clientID+"/block", adminToken, gin.H{"blocked": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.login("0611111111", "secret123")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, sessionCookie(w))

	// A session opened before the block stops working too.
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/auth/me", clientToken, nil).Code)

	// Wrong password still reads as bad credentials.
	assert.Equal(t, http.StatusUnauthorized, env.login("0611111111", "wrong-password").Code)

	w = env.do(http.MethodPost, "/api/admin/users/"+clientID+"/block", adminToken, gin.H{"blocked": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, env.login("0611111111", "secret123").Code)
}

func TestOfferAcceptFlow(t *testing.T) {
	env := newAPIEnv(t)
	clientToken, _ := env.signup("0611111111", "client")
	transporterToken, transporterID := env.signup("0622222222", "transporteur")
	adminToken := env.adminToken()
	requestID := env.createRequest(clientToken)

	offerBody := gin.H{
		"amount":     "1000",
		"pickupDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"loadType":   "complet",
	}

	// Pending transporters cannot bid.
	w := env.do(http.MethodPost, "/api/requests/"+requestID+"/offers", transporterToken, offerBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/admin/users/"+transporterID+"/validate", adminToken, gin.H{"approve": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/requests/"+requestID+"/offers", transporterToken, offerBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var submitted struct {
		Offer struct {
			ID string `json:"id"`
		} `json:"offer"`
	}
	decode(t, w, &submitted)

	w = env.do(http.MethodPost, "/api/requests/"+requestID+"/offers", transporterToken, offerBody)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/api/offers/"+submitted.Offer.ID+"/accept", clientToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var accepted struct {
		Request struct {
			Status                string `json:"status"`
			AssignedTransporterID string `json:"assignedTransporterId"`
		} `json:"request"`
	}
	decode(t, w, &accepted)
	assert.Equal(t, "accepted", accepted.Request.Status)
	assert.Equal(t, transporterID, accepted.Request.AssignedTransporterID)

	// Accepting again is idempotent.
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/offers/"+submitted.Offer.ID+"/accept", clientToken, nil).Code)

	w = env.do(http.MethodGet, "/api/requests/assigned", transporterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var assigned struct {
		Requests []struct {
			ID string `json:"id"`
		} `json:"requests"`
	}
	decode(t, w, &assigned)
	require.Len(t, assigned.Requests, 1)
	assert.Equal(t, requestID, assigned.Requests[0].ID)

	w = env.do(http.MethodGet, "/api/notifications/unread-count", clientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionTokenHeaderIsOptIn(t *testing.T) {
	env := newAPIEnv(t)

	w := env.login(adminPhone, adminPassword)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, sessionCookie(w))
	assert.Empty(t, w.Header().Get(handlers.SessionTokenHeader))
	assert.NotContains(t, w.Body.String(), sessionCookie(w))

	env.auth.ExposeToken = true
	w = env.login(adminPhone, adminPassword)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := w.Header().Get(handlers.SessionTokenHeader)
	assert.Equal(t, sessionCookie(w), token)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/auth/me", token, nil).Code)
}
