package request

import (
	"context"
	"errors"
	"fmt"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
	"camionback/services/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The transporter and client of every payment step are read from the stored
// request, never from the caller.

func (s *DefaultRequestService) loadAssigned(ctx context.Context, requestID string) (*models.TransportRequest, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.AssignedTransporterID == "" {
		return nil, apperr.Transition("Request has no assigned transporter")
	}
	return req, nil
}

// MarkForBilling asks the client to pay.
func (s *DefaultRequestService) MarkForBilling(ctx context.Context, coordinatorID, requestID string) (*models.TransportRequest, error) {
	req, err := s.loadAssigned(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.PaymentStatus == workflow.PaymentNone {
		req.PaymentStatus = workflow.PaymentToInvoice
	}
	if err := s.setPayment(ctx, req, workflow.PaymentAwaiting); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, coordinatorID, "mark_for_billing", audit.TargetPayment, req.ID, map[string]string{"clientTotal": req.ClientTotal})
	s.notifier.Notify(ctx, notification.Event{
		Kind:        notification.KindPaymentRequested,
		RecipientID: req.ClientID,
		RequestID:   req.ID,
		Title:       "Paiement attendu",
		Body:        fmt.Sprintf("Merci de régler %s DH pour la demande %s.", req.ClientTotal, req.ReferenceID),
		SMS:         true,
	})
	return req, nil
}

// ValidatePayment accepts the client's receipt and makes sure a contract
// records the deal.
func (s *DefaultRequestService) ValidatePayment(ctx context.Context, adminID, requestID string, payer Payer) (*models.TransportRequest, error) {
	to := workflow.PaymentPaidByClient
	switch payer {
	case PayerClient, "":
	case PayerCamionback:
		to = workflow.PaymentPaidByCamionback
	default:
		return nil, apperr.Validation("Payer must be client or camionback")
	}
	req, err := s.loadAssigned(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	req.PaymentValidatedAt = &now
	if err := s.setPayment(ctx, req, to); err != nil {
		return nil, err
	}
	s.ensureContract(ctx, req)

	s.audit.Record(ctx, adminID, "validate_payment", audit.TargetPayment, req.ID, map[string]string{"payer": string(to)})
	s.notifier.Notify(ctx,
		notification.Event{
			Kind:        notification.KindPaymentValidated,
			RecipientID: req.ClientID,
			RequestID:   req.ID,
			Title:       "Paiement validé",
			Body:        fmt.Sprintf("Votre paiement pour %s a été validé.", req.ReferenceID),
		},
		notification.Event{
			Kind:        notification.KindPaymentValidated,
			RecipientID: req.AssignedTransporterID,
			RequestID:   req.ID,
			Title:       "Paiement confirmé",
			Body:        fmt.Sprintf("Le paiement de la mission %s est confirmé.", req.ReferenceID),
		},
	)
	return req, nil
}

func (s *DefaultRequestService) ensureContract(ctx context.Context, req *models.TransportRequest) {
	_, err := s.repos.Contracts.GetByRequest(ctx, req.ID)
	if err == nil {
		return
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		s.logger.Error("failed to load contract", zap.String("requestId", req.ID), zap.Error(err))
		return
	}
	c := &models.Contract{
		ID:            uuid.New().String(),
		RequestID:     req.ID,
		OfferID:       req.AcceptedOfferID,
		ClientID:      req.ClientID,
		TransporterID: req.AssignedTransporterID,
		Amount:        req.TransporterAmount,
		Status:        models.ContractInProgress,
	}
	if err := s.repos.Contracts.Create(ctx, c); err != nil && !errors.Is(err, apperr.ErrConflict) {
		s.logger.Error("failed to create contract", zap.String("requestId", req.ID), zap.Error(err))
	}
}

// RejectPayment sends the request back to awaiting payment and drops the
// receipt.
func (s *DefaultRequestService) RejectPayment(ctx context.Context, adminID, requestID, reason string) (*models.TransportRequest, error) {
	req, err := s.loadAssigned(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.PaymentStatus != workflow.PaymentPendingAdminValidation {
		return nil, apperr.Transition("No payment is waiting for validation")
	}
	req.PaymentReceipt = ""
	req.PaymentDate = nil
	if err := s.setPayment(ctx, req, workflow.PaymentAwaiting); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, adminID, "reject_payment", audit.TargetPayment, req.ID, map[string]string{"reason": reason})
	body := fmt.Sprintf("Votre justificatif pour %s a été refusé.", req.ReferenceID)
	if reason != "" {
		body += " Motif : " + reason
	}
	s.notifier.Notify(ctx, notification.Event{
		Kind:        notification.KindPaymentRejected,
		RecipientID: req.ClientID,
		RequestID:   req.ID,
		Title:       "Paiement refusé",
		Body:        body,
		SMS:         true,
	})
	return req, nil
}

// SettlePayment records that the transporter has been paid out.
func (s *DefaultRequestService) SettlePayment(ctx context.Context, adminID, requestID string) (*models.TransportRequest, error) {
	req, err := s.loadAssigned(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.setPayment(ctx, req, workflow.PaymentPaid); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "settle_payment", audit.TargetPayment, req.ID, nil)
	return req, nil
}

// ResetPayment puts any unsettled payment back to be invoiced.
func (s *DefaultRequestService) ResetPayment(ctx context.Context, adminID, requestID string) (*models.TransportRequest, error) {
	req, err := s.loadAssigned(ctx, requestID)
	if err != nil {
		return nil, err
	}
	req.PaymentReceipt = ""
	req.PaymentDate = nil
	req.PaymentValidatedAt = nil
	if err := s.setPayment(ctx, req, workflow.PaymentToInvoice); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "reset_payment", audit.TargetPayment, req.ID, nil)
	return req, nil
}
