package authz

import (
	"context"
	"testing"

	"camionback/models"
	"camionback/services/workflow"

	"github.com/stretchr/testify/assert"
)

func TestGateRejectsAnonymousAndUnknownResources(t *testing.T) {
	g := NewDefaultGate()
	ctx := context.Background()

	assert.ErrorIs(t, g.Authorize(ctx, Principal{}, ActionView, ResourceRequest, &models.TransportRequest{}), ErrDenied)
	assert.ErrorIs(t, g.Authorize(ctx, Principal{UserID: "u"}, ActionView, "invoice", nil), ErrNoPolicyDefined)
}

func TestRequestPolicy(t *testing.T) {
	g := NewDefaultGate()
	ctx := context.Background()

	req := &models.TransportRequest{
		ClientID:           "client-1",
		Status:             workflow.StatusPublishedForMatching,
		CoordinationStatus: workflow.CoordMatching,
	}
	owner := Principal{UserID: "client-1", Role: models.RoleClient}
	stranger := Principal{UserID: "client-2", Role: models.RoleClient}
	validated := Principal{UserID: "t-1", Role: models.RoleTransporter, Validated: true}
	pending := Principal{UserID: "t-2", Role: models.RoleTransporter}
	coordinator := Principal{UserID: "co-1", Role: models.RoleCoordinator}

	tests := []struct {
		name   string
		who    Principal
		action Action
		want   bool
	}{
		{"owner views", owner, ActionView, true},
		{"owner pays", owner, ActionPay, true},
		{"owner cannot bid", owner, ActionOffer, false},
		{"other client cannot view", stranger, ActionView, false},
		{"validated transporter shows interest", validated, ActionInterest, true},
		{"pending transporter cannot show interest", pending, ActionInterest, false},
		{"transporter views market request", validated, ActionView, true},
		{"unassigned transporter cannot report", validated, ActionReport, false},
		{"coordinator bypasses", coordinator, ActionRate, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Can(ctx, tt.who, tt.action, ResourceRequest, req))
		})
	}

	req.Status = workflow.StatusAccepted
	req.CoordinationStatus = workflow.CoordAssigned
	req.AssignedTransporterID = "t-1"
	assert.True(t, g.Can(ctx, validated, ActionReport, ResourceRequest, req))
	assert.False(t, g.Can(ctx, pending, ActionView, ResourceRequest, req))
	assert.False(t, g.Can(ctx, validated, ActionInterest, ResourceRequest, req))
}

func TestOfferPolicy(t *testing.T) {
	g := NewDefaultGate()
	ctx := context.Background()
	res := OfferOnRequest{
		Offer:   &models.Offer{TransporterID: "t-1"},
		Request: &models.TransportRequest{ClientID: "c-1"},
	}

	assert.True(t, g.Can(ctx, Principal{UserID: "t-1", Role: models.RoleTransporter}, ActionDelete, ResourceOffer, res))
	assert.False(t, g.Can(ctx, Principal{UserID: "t-2", Role: models.RoleTransporter}, ActionView, ResourceOffer, res))
	assert.True(t, g.Can(ctx, Principal{UserID: "c-1", Role: models.RoleClient}, ActionChoose, ResourceOffer, res))
	assert.False(t, g.Can(ctx, Principal{UserID: "c-1", Role: models.RoleClient}, ActionDelete, ResourceOffer, res))
}

func TestOwnershipPolicyForEmptyReturns(t *testing.T) {
	g := NewDefaultGate()
	ctx := context.Background()
	er := &models.EmptyReturn{TransporterID: "t-1"}

	assert.True(t, g.Can(ctx, Principal{UserID: "t-1", Role: models.RoleTransporter}, ActionDelete, ResourceEmptyReturn, er))
	assert.False(t, g.Can(ctx, Principal{UserID: "t-9", Role: models.RoleTransporter}, ActionDelete, ResourceEmptyReturn, er))
	assert.True(t, g.Can(ctx, Principal{UserID: "admin", Role: models.RoleAdmin}, ActionDelete, ResourceEmptyReturn, er))
}
