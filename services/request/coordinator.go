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
	"camionback/services/geo"
	"camionback/services/notification"
	"camionback/services/pricing"
	"camionback/services/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListByCategory lists requests for the coordinator dashboard. An empty
// category lists every bucket.
func (s *DefaultRequestService) ListByCategory(ctx context.Context, category workflow.Category, filter models.RequestFilter) ([]CoordinatorView, error) {
	if category != "" && !category.Valid() {
		return nil, apperr.Validation("Unknown category " + string(category))
	}
	tags, err := s.repos.Catalog.ListCoordinationStatuses(ctx)
	if err != nil {
		return nil, err
	}
	tagCategory := make(map[string]workflow.Category, len(tags))
	for _, t := range tags {
		tagCategory[t.Value] = t.Category
	}

	reqs, err := s.repos.Requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]CoordinatorView, 0, len(reqs))
	for _, r := range reqs {
		c := workflow.CategoryOf(r.CoordinationStatus, tagCategory[r.CoordinationTag])
		if category != "" && c != category {
			continue
		}
		views = append(views, CoordinatorView{TransportRequest: r, Category: c})
	}
	return views, nil
}

func (s *DefaultRequestService) Detail(ctx context.Context, requestID string) (*RequestDetail, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	notes, err := s.repos.Audit.ListNotes(ctx, requestID)
	if err != nil {
		return nil, err
	}
	interested, err := s.repos.Users.GetByIDs(ctx, req.TransporterInterests)
	if err != nil {
		return nil, err
	}
	offers, err := s.repos.Offers.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	detail := &RequestDetail{Request: req, Notes: notes, Interested: interested, Offers: offers}
	if client, err := s.repos.Users.GetByID(ctx, req.ClientID); err == nil {
		detail.Client = client
	}
	return detail, nil
}

// Qualify sets the price split of a request waiting for qualification and,
// when both addresses are known, the road distance.
func (s *DefaultRequestService) Qualify(ctx context.Context, coordinatorID, requestID string, in QualifyInput) (*models.TransportRequest, error) {
	split, err := pricing.NewSplit(in.TransporterAmount, in.PlatformFee)
	if err != nil {
		return nil, err
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CoordinationStatus != workflow.CoordQualificationPending {
		return nil, apperr.Transition("Request is not waiting for qualification")
	}

	req.TransporterAmount = split.TransporterAmount
	req.PlatformFee = split.PlatformFee
	req.ClientTotal = split.ClientTotal
	req.DistanceKm = s.routeDistance(ctx, req)
	now := s.now()
	req.QualifiedAt = &now
	req.CoordinationUpdatedAt = &now
	req.CoordinationUpdatedBy = coordinatorID
	if err := s.move(ctx, req, workflow.State{Coordination: workflow.CoordQualified}); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, coordinatorID, "qualify", audit.TargetRequest, req.ID, map[string]string{
		"transporterAmount": split.TransporterAmount,
		"platformFee":       split.PlatformFee,
		"clientTotal":       split.ClientTotal,
	})
	return req, nil
}

// routeDistance asks the distance provider for the road distance. A failure
// leaves the distance unknown rather than failing the qualification.
func (s *DefaultRequestService) routeDistance(ctx context.Context, req *models.TransportRequest) float64 {
	if s.distance == nil {
		return req.DistanceKm
	}
	origin, destination := req.PickupAddress, req.DeliveryAddress
	if origin == "" || destination == "" {
		origin, destination = req.FromCity, req.ToCity
	}
	km, err := s.distance.DistanceKm(ctx, origin, destination)
	if err != nil {
		if !errors.Is(err, geo.ErrNoRoute) {
			s.logger.Warn("distance lookup failed", zap.String("requestId", req.ID), zap.Error(err))
		}
		return req.DistanceKm
	}
	return km
}

// Publish opens a qualified request to transporters and tells every validated
// transporter about it in the background.
func (s *DefaultRequestService) Publish(ctx context.Context, coordinatorID, requestID string) (*models.TransportRequest, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.HasPricing() {
		return nil, apperr.Transition("Request must be qualified before publishing")
	}
	now := s.now()
	req.PublishedAt = &now
	req.CoordinationUpdatedAt = &now
	req.CoordinationUpdatedBy = coordinatorID
	if err := s.move(ctx, req, workflow.State{Status: workflow.StatusPublishedForMatching, Coordination: workflow.CoordMatching}); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, coordinatorID, "publish", audit.TargetRequest, req.ID, nil)
	_ = s.notifier.Broadcast(ctx, notification.Broadcast{
		Audience: notification.AudienceValidatedTransporters,
		SenderID: coordinatorID,
		Inbox:    true,
		Event: notification.Event{
			Kind:      notification.KindRequestPublished,
			RequestID: req.ID,
			Title:     "Nouvelle mission disponible",
			Body:      fmt.Sprintf("%s → %s le %s : %s DH", req.FromCity, req.ToCity, req.DateTime.Format("02/01/2006"), req.TransporterAmount),
		},
	})
	return req, nil
}

// AssignManually gives the job to a transporter without going through offers.
func (s *DefaultRequestService) AssignManually(ctx context.Context, coordinatorID, requestID string, in AssignInput) (*models.TransportRequest, error) {
	t, err := s.loadTransporter(ctx, in.TransporterID)
	if err != nil {
		return nil, err
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case workflow.StatusOpen, workflow.StatusPublishedForMatching:
	default:
		return nil, apperr.Transition("Only open or published requests can be assigned")
	}

	if in.TransporterAmount != "" || in.PlatformFee != "" {
		split, err := pricing.NewSplit(in.TransporterAmount, in.PlatformFee)
		if err != nil {
			return nil, err
		}
		req.TransporterAmount = split.TransporterAmount
		req.PlatformFee = split.PlatformFee
		req.ClientTotal = split.ClientTotal
	} else if !req.HasPricing() {
		return nil, apperr.Validation("Transporter amount and platform fee are required")
	}

	now := s.now()
	if req.QualifiedAt == nil {
		req.QualifiedAt = &now
	}
	req.AssignedTransporterID = t.ID
	req.AssignedManually = true
	req.AssignedAt = &now
	req.AcceptedAt = &now
	req.AcceptedOfferID = ""
	req.PaymentStatus = workflow.PaymentToInvoice
	req.PaymentReceipt = ""
	req.PaymentDate = nil
	req.PaymentValidatedAt = nil
	req.CoordinationUpdatedAt = &now
	req.CoordinationUpdatedBy = coordinatorID
	if err := s.move(ctx, req, workflow.State{Status: workflow.StatusAccepted, Coordination: workflow.CoordAssigned}); err != nil {
		return nil, err
	}
	if _, err := s.repos.Offers.DeleteByRequest(ctx, req.ID, ""); err != nil {
		s.logger.Error("failed to delete offers after manual assignment", zap.String("requestId", req.ID), zap.Error(err))
	}

	s.audit.Record(ctx, coordinatorID, "assign_manually", audit.TargetRequest, req.ID, map[string]string{
		"transporterId":     t.ID,
		"transporterAmount": req.TransporterAmount,
	})
	s.notifier.Notify(ctx,
		notification.Event{
			Kind:        notification.KindRequestAssigned,
			RecipientID: t.ID,
			RequestID:   req.ID,
			Title:       "Nouvelle mission attribuée",
			Body:        fmt.Sprintf("La mission %s (%s → %s) vous a été attribuée pour %s DH.", req.ReferenceID, req.FromCity, req.ToCity, req.TransporterAmount),
			SMS:         true,
		},
		notification.Event{
			Kind:        notification.KindRequestAssigned,
			RecipientID: req.ClientID,
			RequestID:   req.ID,
			Title:       "Transporteur attribué",
			Body:        fmt.Sprintf("Un transporteur a été attribué à votre demande %s. Total : %s DH.", req.ReferenceID, req.ClientTotal),
		},
	)
	return req, nil
}

// UpdateCoordination sets the admin-defined sub-status of a request. An empty
// tag clears it.
func (s *DefaultRequestService) UpdateCoordination(ctx context.Context, coordinatorID, requestID string, in CoordinationInput) (*models.TransportRequest, error) {
	tag := strings.TrimSpace(in.Tag)
	if tag != "" {
		cfg, err := s.repos.Catalog.GetCoordinationStatusByValue(ctx, tag)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("Unknown coordination status " + tag)
		}
		if err != nil {
			return nil, err
		}
		if !cfg.IsActive {
			return nil, apperr.Validation("Coordination status " + tag + " is disabled")
		}
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CoordinationStatus == workflow.CoordArchive {
		return nil, apperr.Transition("Archived requests cannot be tagged")
	}

	now := s.now()
	req.CoordinationTag = tag
	req.CoordinationReason = strings.TrimSpace(in.Reason)
	req.CoordinationReminderDate = in.ReminderDate
	req.CoordinationUpdatedAt = &now
	req.CoordinationUpdatedBy = coordinatorID
	if err := s.repos.Requests.UpdateGuarded(ctx, req, req.State()); err != nil {
		return nil, err
	}

	details := map[string]string{"tag": tag, "reason": req.CoordinationReason}
	if in.ReminderDate != nil {
		details["reminderDate"] = in.ReminderDate.Format(time.RFC3339)
	}
	s.audit.Record(ctx, coordinatorID, "update_coordination", audit.TargetRequest, req.ID, details)
	return req, nil
}

func (s *DefaultRequestService) AssignCoordinator(ctx context.Context, actorID, requestID, coordinatorID string) (*models.TransportRequest, error) {
	coord, err := s.repos.Users.GetByID(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}
	if !coord.Role.Staff() || coord.Blocked() {
		return nil, apperr.Validation("User is not an active coordinator")
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	req.AssignedToID = coord.ID
	if err := s.repos.Requests.UpdateGuarded(ctx, req, req.State()); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actorID, "assign_coordinator", audit.TargetRequest, req.ID, map[string]string{"coordinatorId": coord.ID})
	if coord.ID != actorID {
		s.notifier.Notify(ctx, notification.Event{
			Kind:        notification.KindCoordinatorAssigned,
			RecipientID: coord.ID,
			RequestID:   req.ID,
			Title:       "Demande assignée",
			Body:        fmt.Sprintf("La demande %s vous a été confiée.", req.ReferenceID),
		})
	}
	return req, nil
}

func (s *DefaultRequestService) Archive(ctx context.Context, coordinatorID, requestID, reason string) (*models.TransportRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("An archive reason is required")
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	req.ArchiveReason = reason
	req.ArchivedAt = &now
	req.CoordinationUpdatedAt = &now
	req.CoordinationUpdatedBy = coordinatorID
	if err := s.move(ctx, req, workflow.State{Status: workflow.StatusExpired, Coordination: workflow.CoordArchive}); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, coordinatorID, "archive", audit.TargetRequest, req.ID, map[string]string{"reason": reason})
	return req, nil
}

// Requalify takes a request back to matching with its qualified pricing, or
// back to qualification when it was never priced. Assignment, interests,
// offers and the contract are dropped.
func (s *DefaultRequestService) Requalify(ctx context.Context, coordinatorID, requestID string) (*models.TransportRequest, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == workflow.StatusCompleted || req.Status == workflow.StatusCancelled {
		return nil, apperr.Transition("Completed or cancelled requests cannot be requalified")
	}

	clearAssignment(req)
	req.ArchiveReason = ""
	req.ArchivedAt = nil
	now := s.now()
	req.CoordinationUpdatedAt = &now
	req.CoordinationUpdatedBy = coordinatorID

	to := workflow.State{Status: workflow.StatusOpen, Coordination: workflow.CoordQualificationPending}
	if req.HasPricing() {
		to = workflow.State{Status: workflow.StatusPublishedForMatching, Coordination: workflow.CoordMatching}
		req.PublishedAt = &now
	}
	if err := s.move(ctx, req, to); err != nil {
		return nil, err
	}
	s.dropDeals(ctx, req.ID)

	s.audit.Record(ctx, coordinatorID, "requalify", audit.TargetRequest, req.ID, map[string]string{"status": string(req.Status)})
	if req.Status == workflow.StatusPublishedForMatching {
		_ = s.notifier.Broadcast(ctx, notification.Broadcast{
			Audience: notification.AudienceValidatedTransporters,
			SenderID: coordinatorID,
			Inbox:    true,
			Event: notification.Event{
				Kind:      notification.KindRequestPublished,
				RequestID: req.ID,
				Title:     "Mission de nouveau disponible",
				Body:      fmt.Sprintf("%s → %s : %s DH", req.FromCity, req.ToCity, req.TransporterAmount),
			},
		})
	}
	return req, nil
}

func (s *DefaultRequestService) AddNote(ctx context.Context, actor Actor, requestID, content string) (*models.RequestNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("Note content is required")
	}
	if _, err := s.repos.Requests.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	note := &models.RequestNote{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Content:    content,
	}
	if err := s.repos.Audit.AddNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *DefaultRequestService) ListNotes(ctx context.Context, requestID string) ([]models.RequestNote, error) {
	return s.repos.Audit.ListNotes(ctx, requestID)
}

// Cancel is coordinator work. The reason is kept as an internal note.
func (s *DefaultRequestService) Cancel(ctx context.Context, actor Actor, requestID, reason string) (*models.TransportRequest, error) {
	if !actor.Role.Staff() {
		return nil, apperr.Forbidden("Only coordinators can cancel a request")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("A cancellation reason is required")
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req.CancelReason = reason
	req.CancelledAt = &now
	if err := s.move(ctx, req, workflow.State{Status: workflow.StatusCancelled, Coordination: workflow.CoordArchive}); err != nil {
		return nil, err
	}

	note := &models.RequestNote{
		ID:         uuid.New().String(),
		RequestID:  req.ID,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Content:    "Annulation : " + reason,
	}
	if err := s.repos.Audit.AddNote(ctx, note); err != nil {
		s.logger.Error("failed to write cancellation note", zap.String("requestId", req.ID), zap.Error(err))
	}
	s.audit.Record(ctx, actor.ID, "cancel", audit.TargetRequest, req.ID, map[string]string{"reason": reason})

	var events []notification.Event
	if req.AssignedTransporterID != "" {
		events = append(events, notification.Event{
			Kind:        notification.KindRequestCancelled,
			RecipientID: req.AssignedTransporterID,
			RequestID:   req.ID,
			Title:       "Mission annulée",
			Body:        fmt.Sprintf("La demande %s a été annulée.", req.ReferenceID),
			SMS:         true,
		})
	}
	events = append(events, notification.Event{
		Kind:        notification.KindRequestCancelled,
		RecipientID: req.ClientID,
		RequestID:   req.ID,
		Title:       "Demande annulée",
		Body:        fmt.Sprintf("Votre demande %s a été annulée : %s", req.ReferenceID, reason),
	})
	s.notifier.Notify(ctx, events...)
	return req, nil
}
