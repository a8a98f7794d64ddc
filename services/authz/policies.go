package authz

import (
	"context"

	"camionback/models"
	"camionback/services/workflow"
)

// Owned is implemented by rows that belong to one user.
type Owned interface {
	GetOwnerID() string
}

// OwnershipPolicy lets owners do anything and staff bypass.
type OwnershipPolicy struct{}

func (OwnershipPolicy) Can(_ context.Context, p Principal, _ Action, resource any) bool {
	if p.Role.Staff() {
		return true
	}
	o, ok := resource.(Owned)
	return ok && o.GetOwnerID() == p.UserID
}

// RequestPolicy encodes who may touch a transport request.
type RequestPolicy struct{}

func (RequestPolicy) Can(_ context.Context, p Principal, action Action, resource any) bool {
	req, ok := resource.(*models.TransportRequest)
	if !ok || req == nil {
		return false
	}
	if p.Role.Staff() {
		return true
	}

	switch p.Role {
	case models.RoleClient:
		if req.ClientID != p.UserID {
			return false
		}
		switch action {
		case ActionView, ActionUpdate, ActionChoose, ActionPay, ActionRate, ActionReport:
			return true
		}
		return false

	case models.RoleTransporter:
		assigned := req.AssignedTransporterID == p.UserID
		switch action {
		case ActionView:
			return assigned || req.HasInterest(p.UserID) || visibleToTransporters(req)
		case ActionReport:
			return assigned
		case ActionInterest:
			return p.Validated && req.Status == workflow.StatusPublishedForMatching
		case ActionOffer:
			return p.Validated && (req.Status == workflow.StatusOpen || req.Status == workflow.StatusPublishedForMatching)
		}
	}
	return false
}

// visibleToTransporters reports whether the request is on the open market.
func visibleToTransporters(req *models.TransportRequest) bool {
	return req.Status == workflow.StatusOpen || req.Status == workflow.StatusPublishedForMatching
}

// OfferPolicy lets the bidder manage its offer and the request owner read it.
// The request is passed alongside because offers do not carry the client id.
type OfferPolicy struct{}

// OfferOnRequest pairs an offer with the request it targets.
type OfferOnRequest struct {
	Offer   *models.Offer
	Request *models.TransportRequest
}

func (OfferPolicy) Can(_ context.Context, p Principal, action Action, resource any) bool {
	res, ok := resource.(OfferOnRequest)
	if !ok || res.Offer == nil {
		return false
	}
	if p.Role.Staff() {
		return true
	}
	if res.Offer.TransporterID == p.UserID {
		return action == ActionView || action == ActionDelete
	}
	if res.Request != nil && res.Request.ClientID == p.UserID {
		return action == ActionView || action == ActionChoose
	}
	return false
}

// ContractPolicy allows both parties and staff.
type ContractPolicy struct{}

func (ContractPolicy) Can(_ context.Context, p Principal, _ Action, resource any) bool {
	c, ok := resource.(*models.Contract)
	if !ok || c == nil {
		return false
	}
	return p.Role.Staff() || c.ClientID == p.UserID || c.TransporterID == p.UserID
}

// NewDefaultGate registers every policy the API relies on.
func NewDefaultGate() *Gate {
	g := NewGate()
	g.Register(ResourceRequest, RequestPolicy{})
	g.Register(ResourceOffer, OfferPolicy{})
	g.Register(ResourceContract, ContractPolicy{})
	g.Register(ResourceEmptyReturn, OwnershipPolicy{})
	return g
}
