// Package offer manages transporter bids on requests and their acceptance.
package offer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"camionback/apperr"
	"camionback/database/repository"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
	"camionback/services/pricing"
	"camionback/services/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfferService is the bidding side of the marketplace.
type OfferService interface {
	Submit(ctx context.Context, transporterID, requestID string, in SubmitInput) (*models.Offer, error)
	ListForRequest(ctx context.Context, viewer Viewer, requestID string) ([]OfferView, error)
	ListMine(ctx context.Context, transporterID string) ([]OfferView, error)
	Accept(ctx context.Context, viewer Viewer, offerID string) (*AcceptResult, error)
	Delete(ctx context.Context, transporterID, offerID string) error
	ListContracts(ctx context.Context, clientID, transporterID string) ([]models.Contract, error)
	UpdateContractStatus(ctx context.Context, adminID, contractID string, status models.ContractStatus) (*models.Contract, error)
}

type SubmitInput struct {
	Amount     string    `json:"amount" binding:"required"`
	PickupDate time.Time `json:"pickupDate" binding:"required"`
	LoadType   string    `json:"loadType" binding:"required"`
	Message    string    `json:"message"`
}

// Viewer is who looks at or acts on offers.
type Viewer struct {
	ID   string
	Role models.Role
}

// OfferView is an offer as shown to one viewer. Clients only see the amount
// they would pay; the transporter's own amount is left out for them.
type OfferView struct {
	models.Offer
	ClientAmount     string       `json:"clientAmount,omitempty"`
	CommissionAmount string       `json:"commissionAmount,omitempty"`
	Transporter      *Transporter `json:"transporter,omitempty"`
}

// Transporter is the public profile attached to an offer.
type Transporter struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	City         string  `json:"city"`
	TruckType    string  `json:"truckType,omitempty"`
	Rating       float64 `json:"rating"`
	TotalRatings int     `json:"totalRatings"`
	TotalTrips   int     `json:"totalTrips"`
}

type AcceptResult struct {
	Request  *models.TransportRequest `json:"request"`
	Offer    *models.Offer            `json:"offer"`
	Contract *models.Contract         `json:"contract"`
	Removed  int64                    `json:"removedOffers"`
}

type DefaultOfferService struct {
	repos    repository.Repos
	notifier *notification.Notifier
	audit    *audit.Recorder
	settings pricing.Source
	logger   *zap.Logger
	now      func() time.Time
}

func NewDefaultOfferService(repos repository.Repos, notifier *notification.Notifier, recorder *audit.Recorder, settings pricing.Source, logger *zap.Logger) *DefaultOfferService {
	return &DefaultOfferService{repos: repos, notifier: notifier, audit: recorder, settings: settings, logger: logger, now: time.Now}
}

func biddable(status workflow.RequestStatus) bool {
	return status == workflow.StatusOpen || status == workflow.StatusPublishedForMatching
}

func (s *DefaultOfferService) Submit(ctx context.Context, transporterID, requestID string, in SubmitInput) (*models.Offer, error) {
	amount, err := pricing.Normalize(in.Amount)
	if err != nil {
		return nil, err
	}
	if amount == "0.00" {
		return nil, apperr.Validation("Amount must be positive")
	}
	if in.PickupDate.IsZero() || strings.TrimSpace(in.LoadType) == "" {
		return nil, apperr.Validation("Pickup date and load type are required")
	}

	t, err := s.repos.Users.GetByID(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	if !t.CanWork() {
		return nil, apperr.Forbidden("Your account must be validated before sending offers")
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !biddable(req.Status) {
		return nil, apperr.Transition("Request no longer accepts offers")
	}
	if _, err := s.repos.Offers.FindByRequestAndTransporter(ctx, requestID, transporterID); err == nil {
		return nil, apperr.Conflict("You already submitted an offer for this request")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	offer := &models.Offer{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		TransporterID: transporterID,
		Amount:        amount,
		PickupDate:    in.PickupDate,
		LoadType:      strings.TrimSpace(in.LoadType),
		Message:       strings.TrimSpace(in.Message),
		Status:        models.OfferPending,
	}
	if err := s.repos.Offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Nouvelle offre pour %s.", req.ReferenceID)
	if settings, err := s.settings.Current(ctx); err == nil {
		if clientAmount, err := pricing.ClientAmount(amount, settings); err == nil {
			body = fmt.Sprintf("Nouvelle offre de %s DH pour %s.", clientAmount, req.ReferenceID)
		}
	}
	s.notifier.Notify(ctx, notification.Event{
		Kind:        notification.KindNewOffer,
		RecipientID: req.ClientID,
		RequestID:   req.ID,
		OfferID:     offer.ID,
		Title:       "Nouvelle offre",
		Body:        body,
	})
	return offer, nil
}

func publicTransporter(u *models.User) *Transporter {
	return &Transporter{
		ID:           u.ID,
		Name:         u.Name,
		City:         u.City,
		TruckType:    u.TruckType,
		Rating:       u.Rating,
		TotalRatings: u.TotalRatings,
		TotalTrips:   u.TotalTrips,
	}
}

func (s *DefaultOfferService) view(o models.Offer, viewer Viewer, settings pricing.Settings, profiles map[string]*models.User) (OfferView, error) {
	v := OfferView{Offer: o}
	if u, ok := profiles[o.TransporterID]; ok {
		v.Transporter = publicTransporter(u)
	}
	switch {
	case viewer.Role == models.RoleClient:
		clientAmount, err := pricing.ClientAmount(o.Amount, settings)
		if err != nil {
			return v, err
		}
		v.ClientAmount = clientAmount
		v.Amount = ""
	case viewer.Role.Staff():
		q, err := pricing.QuoteOffer(o.Amount, settings)
		if err != nil {
			return v, err
		}
		v.ClientAmount = q.ClientAmount
		v.CommissionAmount = q.CommissionAmount
	}
	return v, nil
}

// ListForRequest shows every offer to the client and staff, and only their
// own offer to a transporter.
func (s *DefaultOfferService) ListForRequest(ctx context.Context, viewer Viewer, requestID string) ([]OfferView, error) {
	offers, err := s.repos.Offers.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if viewer.Role == models.RoleTransporter {
		own := offers[:0]
		for _, o := range offers {
			if o.TransporterID == viewer.ID {
				own = append(own, o)
			}
		}
		offers = own
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(offers))
	for _, o := range offers {
		ids = append(ids, o.TransporterID)
	}
	users, err := s.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]*models.User, len(users))
	for i := range users {
		profiles[users[i].ID] = &users[i]
	}

	views := make([]OfferView, 0, len(offers))
	for _, o := range offers {
		v, err := s.view(o, viewer, settings, profiles)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *DefaultOfferService) ListMine(ctx context.Context, transporterID string) ([]OfferView, error) {
	offers, err := s.repos.Offers.ListByTransporter(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	views := make([]OfferView, 0, len(offers))
	for _, o := range offers {
		views = append(views, OfferView{Offer: o})
	}
	return views, nil
}

// Delete withdraws a transporter's own pending offer.
func (s *DefaultOfferService) Delete(ctx context.Context, transporterID, offerID string) error {
	o, err := s.repos.Offers.GetByID(ctx, offerID)
	if err != nil {
		return err
	}
	if o.TransporterID != transporterID {
		return apperr.Forbidden("You can only withdraw your own offers")
	}
	if o.Status != models.OfferPending {
		return apperr.Transition("Only pending offers can be withdrawn")
	}
	return s.repos.Offers.Delete(ctx, o.ID)
}
