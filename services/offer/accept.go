package offer

import (
	"context"
	"fmt"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
	"camionback/services/pricing"
	"camionback/services/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Accept gives the request to the offer's transporter. The request is
// claimed first with a guarded update so two concurrent accepts cannot both
// win. Accepting the offer that already won finishes any step a previous
// call left undone and succeeds.
func (s *DefaultOfferService) Accept(ctx context.Context, viewer Viewer, offerID string) (*AcceptResult, error) {
	o, err := s.repos.Offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	req, err := s.repos.Requests.GetByID(ctx, o.RequestID)
	if err != nil {
		return nil, err
	}
	if viewer.Role == models.RoleClient && req.ClientID != viewer.ID {
		return nil, apperr.Forbidden("Not your request")
	}

	if req.AcceptedOfferID == o.ID && req.Status == workflow.StatusAccepted {
		return s.finalize(ctx, req, o)
	}
	if req.AssignedTransporterID != "" || req.Status == workflow.StatusAccepted {
		return nil, apperr.Conflict("Another transporter was already selected for this request")
	}
	if !biddable(req.Status) {
		return nil, apperr.Transition("Request no longer accepts offers")
	}
	if o.Status != models.OfferPending {
		return nil, apperr.Transition("Offer is no longer pending")
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	q, err := pricing.QuoteOffer(o.Amount, settings)
	if err != nil {
		return nil, err
	}

	from := req.State()
	next, err := workflow.Move(from, workflow.State{Status: workflow.StatusAccepted, Coordination: workflow.CoordAssigned})
	if err != nil {
		return nil, apperr.Transition(err.Error())
	}
	now := s.now()
	req.SetState(next)
	req.AcceptedOfferID = o.ID
	req.AcceptedAt = &now
	req.AssignedTransporterID = o.TransporterID
	req.AssignedAt = &now
	req.AssignedManually = false
	req.TransporterAmount = q.OfferAmount
	req.PlatformFee = q.CommissionAmount
	req.ClientTotal = q.ClientAmount
	req.PaymentStatus = workflow.PaymentToInvoice
	if err := s.repos.Requests.UpdateGuarded(ctx, req, from); err != nil {
		return nil, err
	}

	res, err := s.finalize(ctx, req, o)
	if err != nil {
		return nil, err
	}
	if viewer.Role.Staff() {
		s.audit.Record(ctx, viewer.ID, "accept_offer", audit.TargetOffer, o.ID, map[string]string{"requestId": req.ID})
	}

	events := []notification.Event{{
		Kind:        notification.KindOfferAccepted,
		RecipientID: o.TransporterID,
		RequestID:   req.ID,
		OfferID:     o.ID,
		Title:       "Offre acceptée",
		Body:        fmt.Sprintf("Votre offre de %s DH pour %s (%s → %s) a été acceptée.", o.Amount, req.ReferenceID, req.FromCity, req.ToCity),
		SMS:         true,
	}}
	if viewer.ID != req.ClientID {
		events = append(events, notification.Event{
			Kind:        notification.KindOfferAccepted,
			RecipientID: req.ClientID,
			RequestID:   req.ID,
			OfferID:     o.ID,
			Title:       "Transporteur confirmé",
			Body:        fmt.Sprintf("Un transporteur a été confirmé pour %s. Total : %s DH.", req.ReferenceID, req.ClientTotal),
		})
	}
	s.notifier.Notify(ctx, events...)
	return res, nil
}

// finalize runs the steps that follow a won request. Each one is safe to
// repeat.
func (s *DefaultOfferService) finalize(ctx context.Context, req *models.TransportRequest, o *models.Offer) (*AcceptResult, error) {
	if o.Status != models.OfferAccepted {
		if err := s.repos.Offers.UpdateStatus(ctx, o.ID, models.OfferAccepted); err != nil {
			s.logger.Error("offer accepted on request but not on offer", zap.String("offerId", o.ID), zap.Error(err))
			return nil, err
		}
		o.Status = models.OfferAccepted
	}

	removed, err := s.repos.Offers.DeleteByRequest(ctx, req.ID, o.ID)
	if err != nil {
		s.logger.Error("failed to delete competing offers", zap.String("requestId", req.ID), zap.Error(err))
		return nil, err
	}

	contract, err := s.repos.Contracts.GetByRequest(ctx, req.ID)
	if err != nil || contract.OfferID != o.ID {
		if err := s.repos.Contracts.DeleteByRequest(ctx, req.ID); err != nil {
			return nil, err
		}
		contract = &models.Contract{
			ID:            uuid.New().String(),
			RequestID:     req.ID,
			OfferID:       o.ID,
			ClientID:      req.ClientID,
			TransporterID: o.TransporterID,
			Amount:        o.Amount,
			Status:        models.ContractInProgress,
		}
		if err := s.repos.Contracts.Create(ctx, contract); err != nil {
			s.logger.Error("failed to create contract", zap.String("requestId", req.ID), zap.Error(err))
			return nil, err
		}
	}

	return &AcceptResult{Request: req, Offer: o, Contract: contract, Removed: removed}, nil
}

func (s *DefaultOfferService) ListContracts(ctx context.Context, clientID, transporterID string) ([]models.Contract, error) {
	return s.repos.Contracts.List(ctx, clientID, transporterID)
}

func (s *DefaultOfferService) UpdateContractStatus(ctx context.Context, adminID, contractID string, status models.ContractStatus) (*models.Contract, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Unknown contract status " + string(status))
	}
	c, err := s.repos.Contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	c.Status = status
	if err := s.repos.Contracts.Update(ctx, c); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "update_contract", audit.TargetOffer, c.ID, map[string]string{"status": string(status)})
	return c, nil
}
