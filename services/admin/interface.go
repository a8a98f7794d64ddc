package admin

import (
	"context"
	"time"

	"camionback/database/repository"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
	"camionback/services/pricing"
	"camionback/services/workflow"

	"go.uber.org/zap"
)

// AdminService is the platform governance surface: settings, catalogs,
// reporting and outbound SMS.
type AdminService interface {
	pricing.Source
	GetSettings(ctx context.Context) (*models.AdminSettings, error)
	UpdateSettings(ctx context.Context, adminID string, s pricing.Settings) (*models.AdminSettings, error)
	Stats(ctx context.Context) (*Stats, error)

	ListCoordinationStatuses(ctx context.Context) ([]models.CoordinationStatusConfig, error)
	CreateCoordinationStatus(ctx context.Context, adminID string, in CoordinationStatusInput) (*models.CoordinationStatusConfig, error)
	UpdateCoordinationStatus(ctx context.Context, adminID, id string, in CoordinationStatusInput) (*models.CoordinationStatusConfig, error)
	DeleteCoordinationStatus(ctx context.Context, adminID, id string) error

	ListCities(ctx context.Context) ([]models.City, error)
	CreateCity(ctx context.Context, adminID, name string) (*models.City, error)
	UpdateCity(ctx context.Context, adminID, id, name string) (*models.City, error)
	DeleteCity(ctx context.Context, adminID, id string) error

	ListStories(ctx context.Context, activeOnly bool, audience models.Role) ([]models.Story, error)
	CreateStory(ctx context.Context, adminID string, in StoryInput) (*models.Story, error)
	UpdateStory(ctx context.Context, adminID, id string, in StoryInput) (*models.Story, error)
	DeleteStory(ctx context.Context, adminID, id string) error

	ListReports(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
	ResolveReport(ctx context.Context, adminID, id, notes string) (*models.Report, error)

	SendSMS(ctx context.Context, adminID, phone, message string) error
	BroadcastSMS(ctx context.Context, adminID string, audience notification.Audience, message string) error
	SmsHistory(ctx context.Context, limit int64) ([]models.SmsHistory, error)
	ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.CoordinatorLog, error)

	ExportRequests(ctx context.Context, filter models.RequestFilter) ([]byte, error)
	ExportPayments(ctx context.Context) ([]byte, error)

	GetLegalSections() []models.LegalSection
	GetLegalSectionsFor(role models.Role) []models.LegalSection
}

type CoordinationStatusInput struct {
	Value        string            `json:"value" binding:"required"`
	Label        string            `json:"label" binding:"required"`
	Category     workflow.Category `json:"category" binding:"required"`
	DisplayOrder int               `json:"displayOrder"`
	IsActive     *bool             `json:"isActive"`
}

type StoryInput struct {
	Title        string `json:"title" binding:"required"`
	Content      string `json:"content" binding:"required"`
	MediaURL     string `json:"mediaUrl"`
	Audience     string `json:"audience"`
	IsActive     *bool  `json:"isActive"`
	DisplayOrder int    `json:"displayOrder"`
}

// DefaultAdminService is the production implementation.
type DefaultAdminService struct {
	repos       repository.Repos
	notifier    *notification.Notifier
	sms         *notification.Dispatcher
	audit       *audit.Recorder
	defaultRate float64
	logger      *zap.Logger
	now         func() time.Time
}

func NewDefaultAdminService(repos repository.Repos, notifier *notification.Notifier, sms *notification.Dispatcher, recorder *audit.Recorder, defaultRate float64, logger *zap.Logger) *DefaultAdminService {
	return &DefaultAdminService{
		repos:       repos,
		notifier:    notifier,
		sms:         sms,
		audit:       recorder,
		defaultRate: defaultRate,
		logger:      logger,
		now:         time.Now,
	}
}
