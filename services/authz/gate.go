// Package authz is the declarative ownership layer. Role middleware decides
// who may call a route at all; the Gate decides whether the caller may act on
// one particular row.
package authz

import (
	"context"
	"errors"

	"camionback/models"
)

var (
	ErrDenied          = errors.New("not allowed")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

type Action string

const (
	ActionView     Action = "view"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionOffer    Action = "offer"
	ActionInterest Action = "interest"
	ActionChoose   Action = "choose"
	ActionPay      Action = "pay"
	ActionRate     Action = "rate"
	ActionReport   Action = "report"
)

// Resource type names.
const (
	ResourceRequest     = "request"
	ResourceOffer       = "offer"
	ResourceContract    = "contract"
	ResourceEmptyReturn = "empty_return"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID      string
	Role        models.Role
	PhoneNumber string
	// Validated is true for transporters an admin has approved.
	Validated bool
}

// Policy decides one resource type.
type Policy interface {
	Can(ctx context.Context, p Principal, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, p Principal, action Action, resource any) bool

func (f PolicyFunc) Can(ctx context.Context, p Principal, action Action, resource any) bool {
	return f(ctx, p, action, resource)
}

// Gate maps resource types to policies.
type Gate struct {
	policies map[string]Policy
}

func NewGate() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

// Register adds or replaces the policy of resourceType.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Authorize returns nil when p may perform action on resource.
func (g *Gate) Authorize(ctx context.Context, p Principal, action Action, resourceType string, resource any) error {
	if p.UserID == "" {
		return ErrDenied
	}
	policy, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !policy.Can(ctx, p, action, resource) {
		return ErrDenied
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, p Principal, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, p, action, resourceType, resource) == nil
}
