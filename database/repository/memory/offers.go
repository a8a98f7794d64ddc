package memory

import (
	"context"
	"time"

	"camionback/apperr"
	offerRepo "camionback/database/repository/offer"
	"camionback/models"
)

type OfferRepo struct {
	t *table[models.Offer]
}

var _ offerRepo.OfferRepository = (*OfferRepo)(nil)

func NewOfferRepo() *OfferRepo {
	return &OfferRepo{t: newTable[models.Offer](nil)}
}

func (r *OfferRepo) Create(_ context.Context, offer *models.Offer) error {
	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	ok := r.t.insert(offer.ID, *offer, func(o models.Offer) bool {
		return o.RequestID == offer.RequestID && o.TransporterID == offer.TransporterID
	})
	if !ok {
		return apperr.Conflict("You already submitted an offer for this request")
	}
	return nil
}

func (r *OfferRepo) GetByID(_ context.Context, id string) (*models.Offer, error) {
	o, ok := r.t.get(id)
	if !ok {
		return nil, apperr.NotFound("offer not found")
	}
	return &o, nil
}

func (r *OfferRepo) FindByRequestAndTransporter(_ context.Context, requestID, transporterID string) (*models.Offer, error) {
	o, ok := r.t.first(func(o models.Offer) bool {
		return o.RequestID == requestID && o.TransporterID == transporterID
	})
	if !ok {
		return nil, apperr.NotFound("offer not found")
	}
	return &o, nil
}

func (r *OfferRepo) ListByRequest(_ context.Context, requestID string) ([]models.Offer, error) {
	return r.t.find(func(o models.Offer) bool { return o.RequestID == requestID }), nil
}

func (r *OfferRepo) ListByTransporter(_ context.Context, transporterID string) ([]models.Offer, error) {
	return r.t.find(func(o models.Offer) bool { return o.TransporterID == transporterID }), nil
}

func (r *OfferRepo) UpdateStatus(_ context.Context, id string, status models.OfferStatus) error {
	found, _ := r.t.update(id, func(o *models.Offer) error {
		o.Status = status
		o.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return apperr.NotFound("offer not found")
	}
	return nil
}

func (r *OfferRepo) Delete(_ context.Context, id string) error {
	if !r.t.remove(id) {
		return apperr.NotFound("offer not found")
	}
	return nil
}

func (r *OfferRepo) DeleteByRequest(_ context.Context, requestID, keepID string) (int64, error) {
	ids := r.t.removeWhere(func(o models.Offer) bool { return o.RequestID == requestID && o.ID != keepID })
	return int64(len(ids)), nil
}

func (r *OfferRepo) DeleteByTransporter(_ context.Context, transporterID string) (int64, error) {
	ids := r.t.removeWhere(func(o models.Offer) bool { return o.TransporterID == transporterID })
	return int64(len(ids)), nil
}

func (r *OfferRepo) CountByRequest(ctx context.Context, requestID string) (int64, error) {
	offers, _ := r.ListByRequest(ctx, requestID)
	return int64(len(offers)), nil
}

type ContractRepo struct {
	t *table[models.Contract]
}

var _ offerRepo.ContractRepository = (*ContractRepo)(nil)

func NewContractRepo() *ContractRepo {
	return &ContractRepo{t: newTable[models.Contract](nil)}
}

func (r *ContractRepo) Create(_ context.Context, c *models.Contract) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if !r.t.insert(c.ID, *c, func(existing models.Contract) bool { return existing.RequestID == c.RequestID }) {
		return apperr.Conflict("contract already exists")
	}
	return nil
}

func (r *ContractRepo) GetByID(_ context.Context, id string) (*models.Contract, error) {
	c, ok := r.t.get(id)
	if !ok {
		return nil, apperr.NotFound("contract not found")
	}
	return &c, nil
}

func (r *ContractRepo) GetByRequest(_ context.Context, requestID string) (*models.Contract, error) {
	c, ok := r.t.first(func(c models.Contract) bool { return c.RequestID == requestID })
	if !ok {
		return nil, apperr.NotFound("contract not found")
	}
	return &c, nil
}

func (r *ContractRepo) List(_ context.Context, clientID, transporterID string) ([]models.Contract, error) {
	return r.t.find(func(c models.Contract) bool {
		return (clientID == "" || c.ClientID == clientID) && (transporterID == "" || c.TransporterID == transporterID)
	}), nil
}

func (r *ContractRepo) Update(_ context.Context, c *models.Contract) error {
	c.UpdatedAt = time.Now()
	found, _ := r.t.update(c.ID, func(stored *models.Contract) error {
		*stored = *c
		return nil
	})
	if !found {
		return apperr.NotFound("contract not found")
	}
	return nil
}

func (r *ContractRepo) DeleteByRequest(_ context.Context, requestID string) error {
	r.t.removeWhere(func(c models.Contract) bool { return c.RequestID == requestID })
	return nil
}
