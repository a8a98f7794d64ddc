package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
	"camionback/services/pricing"
	"camionback/services/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const referenceSequence = "requestRef"

// FormatReference renders the n-th request reference.
func FormatReference(n int64) string {
	return fmt.Sprintf("CMD-%05d", n)
}

func (s *DefaultRequestService) Create(ctx context.Context, clientID string, in CreateInput) (*models.TransportRequest, error) {
	in.FromCity = strings.TrimSpace(in.FromCity)
	in.ToCity = strings.TrimSpace(in.ToCity)
	if in.FromCity == "" || in.ToCity == "" {
		return nil, apperr.Validation("Departure and arrival cities are required")
	}
	if strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.GoodsType) == "" {
		return nil, apperr.Validation("Description and goods type are required")
	}
	if in.DateTime.IsZero() {
		return nil, apperr.Validation("Pickup date is required")
	}
	budget := ""
	if strings.TrimSpace(in.Budget) != "" {
		b, err := pricing.Normalize(in.Budget)
		if err != nil {
			return nil, err
		}
		budget = b
	}

	n, err := s.repos.Counters.Next(ctx, referenceSequence)
	if err != nil {
		return nil, err
	}
	req := &models.TransportRequest{
		ID:                   uuid.New().String(),
		ReferenceID:          FormatReference(n),
		ClientID:             clientID,
		FromCity:             in.FromCity,
		ToCity:               in.ToCity,
		PickupAddress:        strings.TrimSpace(in.PickupAddress),
		DeliveryAddress:      strings.TrimSpace(in.DeliveryAddress),
		Description:          strings.TrimSpace(in.Description),
		GoodsType:            strings.TrimSpace(in.GoodsType),
		Weight:               strings.TrimSpace(in.Weight),
		Photos:               in.Photos,
		DateTime:             in.DateTime,
		DateFlexible:         in.DateFlexible,
		Budget:               budget,
		HandlingNeeded:       in.HandlingNeeded,
		Status:               workflow.StatusOpen,
		CoordinationStatus:   workflow.CoordQualificationPending,
		PaymentStatus:        workflow.PaymentNone,
		TransporterInterests: []string{},
	}
	if err := s.repos.Requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("request created", zap.String("requestId", req.ID), zap.String("reference", req.ReferenceID))
	s.notifier.Notify(ctx, notification.Event{
		Kind:       notification.KindNewRequest,
		RequestID:  req.ID,
		Title:      "Nouvelle demande " + req.ReferenceID,
		Body:       fmt.Sprintf("%s → %s le %s : %s", req.FromCity, req.ToCity, req.DateTime.Format("02/01/2006"), req.GoodsType),
		EmailAdmin: true,
	})
	return req, nil
}

func (s *DefaultRequestService) Get(ctx context.Context, id string) (*models.TransportRequest, error) {
	return s.repos.Requests.GetByID(ctx, id)
}

func (s *DefaultRequestService) ListForClient(ctx context.Context, clientID string) ([]models.TransportRequest, error) {
	return s.repos.Requests.List(ctx, models.RequestFilter{ClientID: clientID})
}

// ChooseTransporter lets the client pick one of the transporters who
// expressed interest during matching.
func (s *DefaultRequestService) ChooseTransporter(ctx context.Context, clientID, requestID, transporterID string) (*models.TransportRequest, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != workflow.StatusPublishedForMatching {
		return nil, apperr.Transition("Request is not open for matching")
	}
	if !req.HasInterest(transporterID) {
		return nil, apperr.Validation("This transporter has not expressed interest")
	}
	if _, err := s.loadTransporter(ctx, transporterID); err != nil {
		return nil, err
	}

	now := s.now()
	req.AssignedTransporterID = transporterID
	req.AssignedAt = &now
	req.AcceptedAt = &now
	req.AssignedManually = false
	req.PaymentStatus = workflow.PaymentToInvoice
	if err := s.move(ctx, req, workflow.State{Status: workflow.StatusAccepted, Coordination: workflow.CoordAssigned}); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notification.Event{
		Kind:        notification.KindTransporterChosen,
		RecipientID: transporterID,
		RequestID:   req.ID,
		Title:       "Vous avez été choisi",
		Body:        fmt.Sprintf("Le client vous a choisi pour la demande %s (%s → %s).", req.ReferenceID, req.FromCity, req.ToCity),
		SMS:         true,
	})
	return req, nil
}

// MarkAsPaid records the client's payment receipt for admin review.
func (s *DefaultRequestService) MarkAsPaid(ctx context.Context, clientID, requestID, receipt string) (*models.TransportRequest, error) {
	if strings.TrimSpace(receipt) == "" {
		return nil, apperr.Validation("Payment receipt is required")
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	req.PaymentReceipt = receipt
	req.PaymentDate = &now
	if err := s.setPayment(ctx, req, workflow.PaymentPendingAdminValidation); err != nil {
		return nil, err
	}

	events := []notification.Event{{
		Kind:       notification.KindPaymentSubmitted,
		RequestID:  req.ID,
		Title:      "Paiement à valider",
		Body:       fmt.Sprintf("Le client a envoyé un justificatif de paiement pour %s.", req.ReferenceID),
		EmailAdmin: true,
	}}
	if req.AssignedToID != "" {
		events = append(events, notification.Event{
			Kind:        notification.KindPaymentSubmitted,
			RecipientID: req.AssignedToID,
			RequestID:   req.ID,
			Title:       "Paiement à valider",
			Body:        fmt.Sprintf("Justificatif reçu pour %s.", req.ReferenceID),
		})
	}
	s.notifier.Notify(ctx, events...)
	return req, nil
}

// CompleteWithRating closes an accepted request. The rating row is written
// first: its uniqueness per request is what rejects a second completion.
func (s *DefaultRequestService) CompleteWithRating(ctx context.Context, clientID, requestID string, in RatingInput) (*models.TransportRequest, error) {
	if in.Score < 1 || in.Score > 5 {
		return nil, apperr.Validation("Rating must be between 1 and 5")
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Ratings.GetByRequest(ctx, requestID); err == nil {
		return nil, apperr.Conflict("This request has already been rated")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if req.Status != workflow.StatusAccepted || req.AssignedTransporterID == "" {
		return nil, apperr.Transition("Only an accepted request can be completed")
	}

	rating := &models.Rating{
		ID:            uuid.New().String(),
		RequestID:     req.ID,
		TransporterID: req.AssignedTransporterID,
		ClientID:      req.ClientID,
		Score:         in.Score,
		Comment:       strings.TrimSpace(in.Comment),
	}
	if err := s.repos.Ratings.Create(ctx, rating); err != nil {
		return nil, err
	}

	now := s.now()
	req.CompletedAt = &now
	if err := s.move(ctx, req, workflow.State{Status: workflow.StatusCompleted}); err != nil {
		return nil, err
	}
	if _, err := s.repos.Users.ApplyRating(ctx, req.AssignedTransporterID, in.Score); err != nil {
		s.logger.Error("failed to update transporter rating",
			zap.String("transporterId", req.AssignedTransporterID),
			zap.String("requestId", req.ID),
			zap.Error(err))
	}
	s.completeContract(ctx, req.ID)

	s.notifier.Notify(ctx, notification.Event{
		Kind:        notification.KindRequestCompleted,
		RecipientID: req.AssignedTransporterID,
		RequestID:   req.ID,
		Title:       "Mission terminée",
		Body:        fmt.Sprintf("Le client a noté la mission %s : %d/5.", req.ReferenceID, in.Score),
	})
	return req, nil
}

func (s *DefaultRequestService) completeContract(ctx context.Context, requestID string) {
	c, err := s.repos.Contracts.GetByRequest(ctx, requestID)
	if errors.Is(err, apperr.ErrNotFound) {
		return
	}
	if err == nil {
		c.Status = models.ContractCompleted
		err = s.repos.Contracts.Update(ctx, c)
	}
	if err != nil {
		s.logger.Error("failed to complete contract", zap.String("requestId", requestID), zap.Error(err))
	}
}

// Republish puts a finished or stalled request back to open after deleting
// every previous offer.
func (s *DefaultRequestService) Republish(ctx context.Context, actorID, requestID string, newDate *time.Time) (*models.TransportRequest, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case workflow.StatusCompleted, workflow.StatusAccepted, workflow.StatusExpired:
	default:
		return nil, apperr.Transition("Only completed, accepted or expired requests can be republished")
	}

	clearAssignment(req)
	req.ArchiveReason = ""
	req.ArchivedAt = nil
	if newDate != nil {
		req.DateTime = *newDate
	}
	to := workflow.State{
		Status:       workflow.StatusOpen,
		Coordination: workflow.ExpectedCoordination(workflow.StatusOpen, req.HasPricing()),
	}
	if err := s.move(ctx, req, to); err != nil {
		return nil, err
	}
	s.dropDeals(ctx, req.ID)

	s.audit.Record(ctx, actorID, "republish", audit.TargetRequest, req.ID, nil)
	if actorID != req.ClientID {
		s.notifier.Notify(ctx, notification.Event{
			Kind:        notification.KindRequestRepublished,
			RecipientID: req.ClientID,
			RequestID:   req.ID,
			Title:       "Demande republiée",
			Body:        fmt.Sprintf("Votre demande %s a été republiée.", req.ReferenceID),
		})
	}
	return req, nil
}

func (s *DefaultRequestService) FileReport(ctx context.Context, actor Actor, requestID string, in ReportInput) (*models.Report, error) {
	if strings.TrimSpace(in.Type) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, apperr.Validation("Report type and description are required")
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	reported := req.AssignedTransporterID
	if actor.ID == req.AssignedTransporterID {
		reported = req.ClientID
	}
	report := &models.Report{
		ID:             uuid.New().String(),
		RequestID:      req.ID,
		ReporterID:     actor.ID,
		ReporterRole:   actor.Role,
		ReportedUserID: reported,
		Type:           strings.TrimSpace(in.Type),
		Description:    strings.TrimSpace(in.Description),
		Status:         models.ReportPending,
	}
	if err := s.repos.Reports.Create(ctx, report); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notification.Event{
		Kind:       notification.KindReportFiled,
		RequestID:  req.ID,
		Title:      "Nouveau signalement " + req.ReferenceID,
		Body:       fmt.Sprintf("%s : %s", report.Type, report.Description),
		EmailAdmin: true,
	})
	return report, nil
}
