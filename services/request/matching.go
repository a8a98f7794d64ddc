package request

import (
	"context"
	"fmt"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/notification"
	"camionback/services/workflow"
)

// ListMarket returns what a transporter may bid on or show interest in.
func (s *DefaultRequestService) ListMarket(ctx context.Context, f MarketFilter) ([]models.TransportRequest, error) {
	reqs, err := s.repos.Requests.List(ctx, models.RequestFilter{
		Statuses: []workflow.RequestStatus{workflow.StatusOpen, workflow.StatusPublishedForMatching},
		FromCity: f.FromCity,
		ToCity:   f.ToCity,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.TransportRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, ForTransporter(r, f.TransporterID))
	}
	return out, nil
}

func (s *DefaultRequestService) ListAssigned(ctx context.Context, transporterID string) ([]models.TransportRequest, error) {
	reqs, err := s.repos.Requests.List(ctx, models.RequestFilter{AssignedTransporterID: transporterID})
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i] = ForTransporter(reqs[i], transporterID)
	}
	return reqs, nil
}

// ExpressInterest adds the transporter to the request's interest list once.
// Repeating it changes nothing and sends no second notification.
func (s *DefaultRequestService) ExpressInterest(ctx context.Context, transporterID, requestID string) (*models.TransportRequest, error) {
	t, err := s.loadTransporter(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != workflow.StatusPublishedForMatching {
		return nil, apperr.Transition("Request is not open for matching")
	}

	added, err := s.repos.Requests.AddInterest(ctx, requestID, transporterID)
	if err != nil {
		return nil, err
	}
	if added {
		req.TransporterInterests = append(req.TransporterInterests, transporterID)
		events := []notification.Event{{
			Kind:        notification.KindInterestReceived,
			RecipientID: req.ClientID,
			RequestID:   req.ID,
			Title:       "Un transporteur est intéressé",
			Body:        fmt.Sprintf("%s est disponible pour votre demande %s.", t.Name, req.ReferenceID),
		}}
		if req.AssignedToID != "" {
			events = append(events, notification.Event{
				Kind:        notification.KindInterestReceived,
				RecipientID: req.AssignedToID,
				RequestID:   req.ID,
				Title:       "Nouvel intérêt",
				Body:        fmt.Sprintf("%s s'est positionné sur %s.", t.Name, req.ReferenceID),
			})
		}
		s.notifier.Notify(ctx, events...)
	}
	return req, nil
}

// WithdrawInterest is idempotent: withdrawing twice leaves the list as the
// first call left it.
func (s *DefaultRequestService) WithdrawInterest(ctx context.Context, transporterID, requestID string) (*models.TransportRequest, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != workflow.StatusPublishedForMatching {
		return nil, apperr.Transition("Request is not open for matching")
	}
	if _, err := s.repos.Requests.RemoveInterest(ctx, requestID, transporterID); err != nil {
		return nil, err
	}
	return s.repos.Requests.GetByID(ctx, requestID)
}

func (s *DefaultRequestService) InterestedTransporters(ctx context.Context, requestID string) ([]models.User, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.repos.Users.GetByIDs(ctx, req.TransporterInterests)
}
