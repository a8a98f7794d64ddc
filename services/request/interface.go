package request

import (
	"context"
	"time"

	"camionback/database/repository"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/geo"
	"camionback/services/notification"
	"camionback/services/workflow"

	"go.uber.org/zap"
)

// RequestService drives a transport request through its three status tracks.
// Callers are expected to have authorized the actor for the request already;
// the service enforces state preconditions only.
type RequestService interface {
	// Client
	Create(ctx context.Context, clientID string, in CreateInput) (*models.TransportRequest, error)
	Get(ctx context.Context, id string) (*models.TransportRequest, error)
	ListForClient(ctx context.Context, clientID string) ([]models.TransportRequest, error)
	ChooseTransporter(ctx context.Context, clientID, requestID, transporterID string) (*models.TransportRequest, error)
	MarkAsPaid(ctx context.Context, clientID, requestID, receipt string) (*models.TransportRequest, error)
	CompleteWithRating(ctx context.Context, clientID, requestID string, in RatingInput) (*models.TransportRequest, error)
	Republish(ctx context.Context, actorID, requestID string, newDate *time.Time) (*models.TransportRequest, error)
	Cancel(ctx context.Context, actor Actor, requestID, reason string) (*models.TransportRequest, error)
	FileReport(ctx context.Context, actor Actor, requestID string, in ReportInput) (*models.Report, error)

	// Transporter
	ListMarket(ctx context.Context, filter MarketFilter) ([]models.TransportRequest, error)
	ListAssigned(ctx context.Context, transporterID string) ([]models.TransportRequest, error)
	ExpressInterest(ctx context.Context, transporterID, requestID string) (*models.TransportRequest, error)
	WithdrawInterest(ctx context.Context, transporterID, requestID string) (*models.TransportRequest, error)

	// Coordinator
	ListByCategory(ctx context.Context, category workflow.Category, filter models.RequestFilter) ([]CoordinatorView, error)
	Detail(ctx context.Context, requestID string) (*RequestDetail, error)
	InterestedTransporters(ctx context.Context, requestID string) ([]models.User, error)
	Qualify(ctx context.Context, coordinatorID, requestID string, in QualifyInput) (*models.TransportRequest, error)
	Publish(ctx context.Context, coordinatorID, requestID string) (*models.TransportRequest, error)
	AssignManually(ctx context.Context, coordinatorID, requestID string, in AssignInput) (*models.TransportRequest, error)
	UpdateCoordination(ctx context.Context, coordinatorID, requestID string, in CoordinationInput) (*models.TransportRequest, error)
	AssignCoordinator(ctx context.Context, actorID, requestID, coordinatorID string) (*models.TransportRequest, error)
	Archive(ctx context.Context, coordinatorID, requestID, reason string) (*models.TransportRequest, error)
	Requalify(ctx context.Context, coordinatorID, requestID string) (*models.TransportRequest, error)
	AddNote(ctx context.Context, actor Actor, requestID, content string) (*models.RequestNote, error)
	ListNotes(ctx context.Context, requestID string) ([]models.RequestNote, error)

	// Payment
	MarkForBilling(ctx context.Context, coordinatorID, requestID string) (*models.TransportRequest, error)
	ValidatePayment(ctx context.Context, adminID, requestID string, payer Payer) (*models.TransportRequest, error)
	RejectPayment(ctx context.Context, adminID, requestID, reason string) (*models.TransportRequest, error)
	SettlePayment(ctx context.Context, adminID, requestID string) (*models.TransportRequest, error)
	ResetPayment(ctx context.Context, adminID, requestID string) (*models.TransportRequest, error)

	// Consistency
	CheckConsistency(ctx context.Context) (*ConsistencyReport, error)
	Repair(ctx context.Context, adminID string) (int, error)
}

// Actor identifies who performs an action that several roles may take.
type Actor struct {
	ID   string
	Role models.Role
}

type CreateInput struct {
	FromCity        string    `json:"fromCity" binding:"required"`
	ToCity          string    `json:"toCity" binding:"required"`
	PickupAddress   string    `json:"pickupAddress"`
	DeliveryAddress string    `json:"deliveryAddress"`
	Description     string    `json:"description" binding:"required"`
	GoodsType       string    `json:"goodsType" binding:"required"`
	Weight          string    `json:"weight"`
	Photos          []string  `json:"photos"`
	DateTime        time.Time `json:"dateTime" binding:"required"`
	DateFlexible    bool      `json:"dateFlexible"`
	Budget          string    `json:"budget"`
	HandlingNeeded  bool      `json:"handlingNeeded"`
}

type RatingInput struct {
	Score   int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type ReportInput struct {
	Type        string `json:"type" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type QualifyInput struct {
	TransporterAmount string `json:"transporterAmount" binding:"required"`
	PlatformFee       string `json:"platformFee" binding:"required"`
}

// AssignInput names the transporter and, optionally, a new price split. The
// split is required when the request was never qualified.
type AssignInput struct {
	TransporterID     string `json:"transporterId" binding:"required"`
	TransporterAmount string `json:"transporterAmount"`
	PlatformFee       string `json:"platformFee"`
}

type CoordinationInput struct {
	Tag          string     `json:"coordinationStatus"`
	Reason       string     `json:"reason"`
	ReminderDate *time.Time `json:"reminderDate"`
}

// MarketFilter narrows what a transporter browses.
type MarketFilter struct {
	TransporterID string
	FromCity      string
	ToCity        string
}

// Payer says who covered the transporter when an admin validates payment.
type Payer string

const (
	PayerClient     Payer = "client"
	PayerCamionback Payer = "camionback"
)

// CoordinatorView is a request as listed on the coordinator dashboard.
type CoordinatorView struct {
	models.TransportRequest
	Category workflow.Category `json:"category"`
}

type RequestDetail struct {
	Request    *models.TransportRequest `json:"request"`
	Notes      []models.RequestNote     `json:"notes"`
	Interested []models.User            `json:"interestedTransporters"`
	Offers     []models.Offer           `json:"offers"`
	Client     *models.User             `json:"client,omitempty"`
}

// ConsistencyReport lists the (status, coordinationStatus) pairs that break
// the allowed pairing.
type ConsistencyReport struct {
	Total        int64               `json:"total"`
	Inconsistent []models.StatusPair `json:"inconsistent"`
}

// DefaultRequestService is the production implementation.
type DefaultRequestService struct {
	repos    repository.Repos
	notifier *notification.Notifier
	audit    *audit.Recorder
	distance geo.DistanceService
	logger   *zap.Logger
	now      func() time.Time
}

func NewDefaultRequestService(repos repository.Repos, notifier *notification.Notifier, recorder *audit.Recorder, distance geo.DistanceService, logger *zap.Logger) *DefaultRequestService {
	return &DefaultRequestService{
		repos:    repos,
		notifier: notifier,
		audit:    recorder,
		distance: distance,
		logger:   logger,
		now:      time.Now,
	}
}
