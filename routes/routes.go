package routes

import (
	"time"

	"camionback/handlers"
	"camionback/middleware"
	"camionback/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	client      = models.RoleClient
	transporter = models.RoleTransporter
	coordinator = models.RoleCoordinator
	admin       = models.RoleAdmin
)

// RegisterAuthRoutes registers session and account endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/register", hb.AuthHandler.Register)
		api.POST("/login", hb.AuthHandler.Login)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(hb.Auth.RequireAuth())
		protected.POST("/logout", hb.AuthHandler.Logout)
		protected.GET("/me", hb.AuthHandler.Me)
		protected.POST("/select-role", hb.AuthHandler.SelectRole)
		protected.PATCH("/profile", hb.AuthHandler.UpdateProfile)
		protected.PATCH("/device-token", hb.AuthHandler.UpdateDeviceToken)
		protected.PATCH("/password", hb.AuthHandler.ChangePassword)
	}
}

// RegisterRequestRoutes registers the client and transporter request endpoints.
func RegisterRequestRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/requests")
	api.Use(hb.Auth.RequireAuth())
	{
		api.POST("", middleware.RequireRole(client), hb.Requests.Create)
		api.GET("", middleware.RequireRole(client), hb.Requests.ListMine)
		api.GET("/market", middleware.RequireRole(transporter), hb.Requests.ListMarket)
		api.GET("/assigned", middleware.RequireRole(transporter), hb.Requests.ListAssigned)

		api.GET("/:id", hb.Requests.Get)
		api.GET("/:id/qrcode", hb.Requests.QRCode)
		api.GET("/:id/offers", hb.Requests.ListOffers)
		api.POST("/:id/report", hb.Requests.Report)

		api.POST("/:id/choose", middleware.RequireRole(client), hb.Requests.Choose)
		api.POST("/:id/pay", middleware.RequireRole(client), hb.Requests.MarkAsPaid)
		api.POST("/:id/complete", middleware.RequireRole(client), hb.Requests.Complete)
		api.POST("/:id/republish", middleware.RequireRole(client, coordinator, admin), hb.Requests.Republish)
		api.POST("/:id/cancel", middleware.RequireRole(coordinator, admin), hb.Coordinator.Cancel)

		api.POST("/:id/interest", middleware.RequireRole(transporter), hb.Requests.ExpressInterest)
		api.DELETE("/:id/interest", middleware.RequireRole(transporter), hb.Requests.WithdrawInterest)
		api.POST("/:id/offers", middleware.RequireRole(transporter), hb.Requests.SubmitOffer)
	}
}

// RegisterOfferRoutes registers offer and contract endpoints.
func RegisterOfferRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/offers")
	api.Use(hb.Auth.RequireAuth())
	{
		api.GET("/mine", middleware.RequireRole(transporter), hb.Offers.ListMine)
		api.GET("/contracts", hb.Offers.ListContracts)
		api.POST("/:id/accept", middleware.RequireRole(client, coordinator, admin), hb.Offers.Accept)
		api.DELETE("/:id", middleware.RequireRole(transporter), hb.Offers.Delete)
	}
}

// RegisterCoordinatorRoutes registers the staff dashboard.
func RegisterCoordinatorRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/coordinator")
	api.Use(hb.Auth.RequireAuth(), middleware.RequireStaff())
	{
		api.GET("/requests", hb.Coordinator.List)
		api.GET("/requests/:id", hb.Coordinator.Detail)
		api.GET("/requests/:id/interested", hb.Coordinator.Interested)
		api.GET("/requests/:id/recommendations", hb.Coordinator.Recommendations)
		api.POST("/requests/:id/qualify", hb.Coordinator.Qualify)
		api.POST("/requests/:id/publish", hb.Coordinator.Publish)
		api.POST("/requests/:id/assign", hb.Coordinator.Assign)
		api.POST("/requests/:id/billing", hb.Coordinator.MarkForBilling)
		api.PATCH("/requests/:id/coordination", hb.Coordinator.UpdateCoordination)
		api.POST("/requests/:id/coordinator", hb.Coordinator.AssignCoordinator)
		api.POST("/requests/:id/archive", hb.Coordinator.Archive)
		api.POST("/requests/:id/requalify", hb.Coordinator.Requalify)
		api.POST("/requests/:id/cancel", hb.Coordinator.Cancel)
		api.GET("/requests/:id/notes", hb.Coordinator.ListNotes)
		api.POST("/requests/:id/notes", hb.Coordinator.AddNote)

		api.GET("/transporters", hb.Coordinator.ListTransporters)
		api.GET("/transporters/:id/references", hb.Coordinator.ListReferences)
		api.POST("/transporters/:id/references", hb.Coordinator.AddReference)
		api.PATCH("/references/:refId", hb.Coordinator.ReviewReference)
		api.GET("/empty-returns", hb.Coordinator.ListEmptyReturns)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	api.Use(hb.Auth.RequireAuth(), middleware.RequireRole(admin))
	{
		api.GET("/users", hb.Admin.ListUsers)
		api.POST("/users/staff", hb.Admin.CreateStaff)
		api.POST("/users/:id/validate", hb.Admin.ValidateTransporter)
		api.POST("/users/:id/block", hb.Admin.SetBlocked)
		api.DELETE("/users/:id", hb.Admin.DeleteUser)

		api.GET("/payments", hb.Admin.ListPayments)
		api.POST("/payments/:id/validate", hb.Admin.ValidatePayment)
		api.POST("/payments/:id/reject", hb.Admin.RejectPayment)
		api.POST("/payments/:id/settle", hb.Admin.SettlePayment)
		api.POST("/payments/:id/reset", hb.Admin.ResetPayment)

		api.PATCH("/contracts/:id", hb.Admin.UpdateContract)

		api.GET("/settings", hb.Admin.GetSettings)
		api.PUT("/settings", hb.Admin.UpdateSettings)
		api.GET("/stats", hb.Admin.Stats)

		api.GET("/coordination-statuses", hb.Admin.ListCoordinationStatuses)
		api.POST("/coordination-statuses", hb.Admin.CreateCoordinationStatus)
		api.PATCH("/coordination-statuses/:id", hb.Admin.UpdateCoordinationStatus)
		api.DELETE("/coordination-statuses/:id", hb.Admin.DeleteCoordinationStatus)

		api.POST("/cities", hb.Admin.CreateCity)
		api.PATCH("/cities/:id", hb.Admin.UpdateCity)
		api.DELETE("/cities/:id", hb.Admin.DeleteCity)

		api.GET("/stories", hb.Admin.ListStories)
		api.POST("/stories", hb.Admin.CreateStory)
		api.PATCH("/stories/:id", hb.Admin.UpdateStory)
		api.DELETE("/stories/:id", hb.Admin.DeleteStory)

		api.GET("/reports", hb.Admin.ListReports)
		api.POST("/reports/:id/resolve", hb.Admin.ResolveReport)

		api.POST("/sms", hb.Admin.SendSMS)
		api.GET("/sms/history", hb.Admin.SmsHistory)
		api.GET("/logs", hb.Admin.ListLogs)

		api.GET("/export/requests", hb.Admin.ExportRequests)
		api.GET("/export/payments", hb.Admin.ExportPayments)

		api.GET("/consistency", hb.Admin.CheckConsistency)
		api.POST("/consistency/repair", hb.Admin.RepairConsistency)
	}
}

// RegisterSharedRoutes registers endpoints every signed-in role uses.
func RegisterSharedRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	notifications := r.Group("/api/notifications")
	notifications.Use(hb.Auth.RequireAuth())
	{
		notifications.GET("", hb.Inbox.List)
		notifications.GET("/unread-count", hb.Inbox.UnreadCount)
		notifications.PATCH("/:id/read", hb.Inbox.MarkRead)
		notifications.PATCH("/read-all", hb.Inbox.MarkAllRead)
	}

	returns := r.Group("/api/empty-returns")
	returns.Use(hb.Auth.RequireAuth(), middleware.RequireRole(transporter))
	{
		returns.POST("", hb.Transporters.DeclareEmptyReturn)
		returns.GET("", hb.Transporters.ListMyEmptyReturns)
		returns.DELETE("/:id", hb.Transporters.DeleteEmptyReturn)
	}

	r.GET("/api/transporters/:id/ratings", hb.Auth.RequireAuth(), hb.Transporters.ListRatings)
	r.POST("/api/uploads", hb.Auth.RequireAuth(), hb.Storage.Upload)
}

// RegisterPublicRoutes registers endpoints open without a session.
func RegisterPublicRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/cities", hb.Public.ListCities)
	r.GET("/api/stories", hb.Public.ListStories)
	r.GET("/api/legal", hb.Public.Legal)
	r.GET("/health", hb.Public.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if hb.AuthHandler != nil && hb.AuthHandler.ExposeToken {
		corsConfig.ExposeHeaders = append(corsConfig.ExposeHeaders, handlers.SessionTokenHeader)
	}
	if len(hb.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = hb.AllowOrigins
	} else {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	r.Use(cors.New(corsConfig))
	r.Use(middleware.RateLimitMiddleware(hb.RatePerMinute))

	RegisterPublicRoutes(r, hb)
	RegisterAuthRoutes(r, hb)
	RegisterRequestRoutes(r, hb)
	RegisterOfferRoutes(r, hb)
	RegisterCoordinatorRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterSharedRoutes(r, hb)
}
