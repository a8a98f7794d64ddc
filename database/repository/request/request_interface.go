package requestRepo

import (
	"context"

	"camionback/models"
	"camionback/services/workflow"
)

// RequestRepository defines methods for transport request data access.
type RequestRepository interface {
	Create(ctx context.Context, req *models.TransportRequest) error
	GetByID(ctx context.Context, id string) (*models.TransportRequest, error)
	// Update replaces the stored request unconditionally.
	Update(ctx context.Context, req *models.TransportRequest) error
	// UpdateGuarded replaces the stored request only if it is still in
	// expect and nobody wrote it since req was read (same Version). Anything
	// else is reported as a conflict and req.Version is left unchanged.
	UpdateGuarded(ctx context.Context, req *models.TransportRequest, expect workflow.State) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.RequestFilter) ([]models.TransportRequest, error)
	Count(ctx context.Context, filter models.RequestFilter) (int64, error)
	// AddInterest records transporterID once. added is false when it was
	// already present.
	AddInterest(ctx context.Context, id, transporterID string) (added bool, err error)
	RemoveInterest(ctx context.Context, id, transporterID string) (removed bool, err error)
	// StatusPairs counts requests per (status, coordinationStatus).
	StatusPairs(ctx context.Context) ([]models.StatusPair, error)
	// DeleteByClient removes every request of a client and returns their ids.
	DeleteByClient(ctx context.Context, clientID string) ([]string, error)
	// ForgetTransporter drops a transporter from every interest list.
	ForgetTransporter(ctx context.Context, transporterID string) error
}
