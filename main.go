package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camionback/config"
	"camionback/cron"
	"camionback/database"
	"camionback/database/repository"
	"camionback/database/repository/memory"
	"camionback/handlers"
	"camionback/middleware"
	"camionback/routes"
	"camionback/services/admin"
	"camionback/services/audit"
	"camionback/services/authz"
	"camionback/services/geo"
	"camionback/services/notification"
	"camionback/services/offer"
	"camionback/services/request"
	"camionback/services/storage"
	"camionback/services/transporter"
	"camionback/services/user"
	"camionback/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Storage.
	var repos repository.Repos
	checks := map[string]utils.HealthCheck{}
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("main: using in-memory storage, data is lost on restart")
		repos = memory.NewRepos()
	default:
		if err := database.InitDB(); err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		repos = repository.NewMongoRepos()
		checks["mongo"] = func(ctx context.Context) error {
			return database.MongoClient.Ping(ctx, nil)
		}
	}

	// Sessions and queue both need Redis; without it everything runs in process.
	var sessions utils.SessionStore
	redisUp := false
	if err := utils.InitRedis(); err != nil {
		logger.Warn("main: Redis unavailable, using in-memory sessions and inline delivery", zap.Error(err))
		sessions = utils.NewMemorySessionStore()
	} else {
		redisUp = true
		sessions = utils.NewRedisSessionStore(utils.SessionClient)
		checks["redis"] = func(ctx context.Context) error {
			return utils.SessionClient.Ping(ctx).Err()
		}
	}

	// Notification channels.
	var pusher notification.Pusher = notification.LogPusher{Logger: logger}
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := notification.NewFCMPusher(rootCtx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Error("main: FCM disabled", zap.Error(err))
		} else {
			pusher = fcm
		}
	}
	var smsSender notification.SMSSender = notification.LogSMSSender{Logger: logger}
	if cfg.SMSAPIURL != "" {
		smsSender = notification.NewHTTPSMSSender(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender, cfg.SMSCountryCode)
	}
	var mailer notification.Mailer = notification.LogMailer{Logger: logger}
	if cfg.SMTPHost != "" {
		mailer = notification.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	}
	dispatcher := notification.NewDispatcher(repos, pusher, smsSender, mailer, cfg.AdminEmail, logger)

	var queue notification.Queue
	var localQueue *notification.AsyncQueue
	if redisUp {
		asynqQueue := notification.NewAsynqQueue(utils.QueueRedisOpt())
		defer asynqQueue.Close()
		queue = asynqQueue
	} else {
		localQueue = notification.NewAsyncQueue(dispatcher, 4, 1024, logger)
		queue = localQueue
	}
	notifier := notification.NewNotifier(repos.Notifications, queue, logger)

	// Outside services.
	var distance geo.DistanceService
	if cfg.GoogleAPIKey != "" {
		distance = geo.NewGoogleDistance(cfg.GoogleAPIKey)
	}
	var files storage.StorageService = storage.DataURLStorage{}
	if cfg.CloudinaryURL != "" {
		cld, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL)
		if err != nil {
			logger.Fatal("main: failed to initialize cloudinary storage service", zap.Error(err))
		}
		files = cld
	}

	// Services.
	recorder := audit.NewRecorder(repos.Audit, logger)
	adminService := admin.NewDefaultAdminService(repos, notifier, dispatcher, recorder, cfg.DefaultCommissionRate, logger)
	offerService := offer.NewDefaultOfferService(repos, notifier, recorder, adminService, logger)
	requestService := request.NewDefaultRequestService(repos, notifier, recorder, distance, logger)
	userService := user.NewDefaultUserService(repos, notifier, recorder, logger)
	transporterService := transporter.NewDefaultTransporterService(repos, recorder, logger)

	if err := userService.EnsureAdmin(rootCtx, cfg.AdminPhone, cfg.AdminPassword, "Admin CamionBack"); err != nil {
		logger.Error("main: failed to create bootstrap admin", zap.Error(err))
	}

	// Background work.
	if redisUp {
		mux := cron.NewMux(dispatcher, transporterService, logger)
		worker, err := cron.NewWorker(utils.QueueRedisOpt(), mux, cfg.EmptyReturnSweepCron, logger)
		if err != nil {
			logger.Fatal("main: failed to build worker", zap.Error(err))
		}
		worker.Start()
		defer worker.Shutdown()
	} else {
		go cron.RunSweepLoop(rootCtx, transporterService, 30*time.Minute, logger)
	}
	utils.StartHealthMonitor(rootCtx, 30*time.Second, checks)

	// HTTP.
	secret := []byte(cfg.SessionSecret)
	bundle := &handlers.HandlerBundle{
		Auth: &middleware.Authenticator{
			Users:    repos.Users,
			Sessions: sessions,
			Secret:   secret,
			Logger:   logger,
		},
		AuthHandler: &handlers.AuthHandler{
			Users:       userService,
			Sessions:    sessions,
			Secret:      secret,
			TTL:         time.Duration(cfg.SessionTTLHours) * time.Hour,
			Secure:      config.IsProduction(),
			ExposeToken: cfg.ExposeSessionToken,
		},
		Requests: &handlers.RequestHandler{
			Requests: requestService,
			Offers:   offerService,
			Gate:     authz.NewDefaultGate(),
		},
		Offers:        &handlers.OfferHandler{Offers: offerService},
		Coordinator:   &handlers.CoordinatorHandler{Requests: requestService, Transporters: transporterService},
		Admin:         &handlers.AdminHandler{Admin: adminService, Users: userService, Requests: requestService, Offers: offerService},
		Inbox:         &handlers.InboxHandler{Inbox: notification.NewInbox(repos.Notifications)},
		Transporters:  &handlers.TransporterHandler{Transporters: transporterService},
		Public:        &handlers.PublicHandler{Admin: adminService},
		Storage:       &handlers.StorageHandler{StorageSvc: files},
		AllowOrigins:  cfg.CORSOrigins,
		RatePerMinute: cfg.MaxRequestsPerMin,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, bundle)

	port := cfg.AppPort
	if port == "" {
		port = "5000"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if localQueue != nil {
		if err := localQueue.Close(ctx); err != nil {
			logger.Sugar().Warnf("main: pending notifications dropped: %v", err)
		}
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Sugar().Errorf("main: failed to close MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
