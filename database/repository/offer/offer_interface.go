package offerRepo

import (
	"context"

	"camionback/models"
)

// OfferRepository defines methods for offer data access.
type OfferRepository interface {
	// Create inserts an offer. A second offer by the same transporter on the
	// same request is a conflict.
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	FindByRequestAndTransporter(ctx context.Context, requestID, transporterID string) (*models.Offer, error)
	ListByRequest(ctx context.Context, requestID string) ([]models.Offer, error)
	ListByTransporter(ctx context.Context, transporterID string) ([]models.Offer, error)
	UpdateStatus(ctx context.Context, id string, status models.OfferStatus) error
	Delete(ctx context.Context, id string) error
	// DeleteByRequest removes the offers of a request except keepID, which
	// may be empty.
	DeleteByRequest(ctx context.Context, requestID, keepID string) (int64, error)
	DeleteByTransporter(ctx context.Context, transporterID string) (int64, error)
	CountByRequest(ctx context.Context, requestID string) (int64, error)
}

// ContractRepository defines methods for contract data access.
type ContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
	GetByID(ctx context.Context, id string) (*models.Contract, error)
	GetByRequest(ctx context.Context, requestID string) (*models.Contract, error)
	// List returns contracts of a party; both ids empty lists everything.
	List(ctx context.Context, clientID, transporterID string) ([]models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	DeleteByRequest(ctx context.Context, requestID string) error
}
