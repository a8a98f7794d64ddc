package request

import (
	"context"
	"errors"
	"fmt"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/workflow"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// move applies a combined status change and persists the request, guarded on
// the state it was loaded in. Any other field changes made on req before the
// call are saved with it.
func (s *DefaultRequestService) move(ctx context.Context, req *models.TransportRequest, to workflow.State) error {
	from := req.State()
	next, err := workflow.Move(from, to)
	if err != nil {
		var te *workflow.TransitionError
		if errors.As(err, &te) {
			return apperr.Transition(fmt.Sprintf("Request cannot move from %s/%s to %s/%s",
				te.From.Status, te.From.Coordination, te.To.Status, te.To.Coordination))
		}
		return err
	}
	req.SetState(next)
	if err := s.repos.Requests.UpdateGuarded(ctx, req, from); err != nil {
		req.SetState(from)
		return err
	}
	return nil
}

// setPayment advances the payment track and persists the request. The write
// is guarded on the version req was read at, so two admins acting on the
// same payment cannot both succeed.
func (s *DefaultRequestService) setPayment(ctx context.Context, req *models.TransportRequest, to workflow.PaymentStatus) error {
	from := req.PaymentStatus
	if !workflow.CanTransitionPayment(from, to) {
		return apperr.Transition(fmt.Sprintf("Payment cannot move from %q to %q", from, to))
	}
	req.PaymentStatus = to
	if err := s.repos.Requests.UpdateGuarded(ctx, req, req.State()); err != nil {
		req.PaymentStatus = from
		return err
	}
	return nil
}

// clearAssignment forgets who was doing the job and everything that followed
// from it. Pricing is kept.
func clearAssignment(req *models.TransportRequest) {
	req.AssignedTransporterID = ""
	req.AcceptedOfferID = ""
	req.AcceptedAt = nil
	req.AssignedManually = false
	req.AssignedAt = nil
	req.TransporterInterests = []string{}
	req.PaymentStatus = workflow.PaymentNone
	req.PaymentReceipt = ""
	req.PaymentDate = nil
	req.PaymentValidatedAt = nil
	req.CompletedAt = nil
}

// dropDeals removes offers and the contract of a request being reset. Failures
// are logged: the request itself has already moved on.
func (s *DefaultRequestService) dropDeals(ctx context.Context, requestID string) {
	if _, err := s.repos.Offers.DeleteByRequest(ctx, requestID, ""); err != nil {
		s.logger.Error("failed to delete offers", zap.String("requestId", requestID), zap.Error(err))
	}
	if err := s.repos.Contracts.DeleteByRequest(ctx, requestID); err != nil {
		s.logger.Error("failed to delete contract", zap.String("requestId", requestID), zap.Error(err))
	}
}

func (s *DefaultRequestService) loadTransporter(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repos.Users.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound("Transporter not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.CanWork() {
		return nil, apperr.Validation("Transporter is not validated or is blocked")
	}
	return u, nil
}

// ForTransporter hides the client side of the price and other transporters'
// interest from a transporter.
func ForTransporter(req models.TransportRequest, transporterID string) models.TransportRequest {
	req.PlatformFee = ""
	req.ClientTotal = ""
	req.Budget = ""
	req.PaymentReceipt = ""
	interested := req.HasInterest(transporterID)
	req.TransporterInterests = []string{}
	if interested {
		req.TransporterInterests = []string{transporterID}
	}
	return req
}

// ForClient hides the transporter side of the price split.
func ForClient(req models.TransportRequest) models.TransportRequest {
	req.TransporterAmount = ""
	req.PlatformFee = ""
	return req
}

// TrackingQR renders the reference id as a PNG the driver scans at pickup.
func TrackingQR(req *models.TransportRequest) ([]byte, error) {
	png, err := qrcode.Encode(req.ReferenceID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
