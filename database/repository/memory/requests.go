package memory

import (
	"context"
	"time"

	"camionback/apperr"
	requestRepo "camionback/database/repository/request"
	"camionback/models"
	"camionback/services/workflow"
)

type RequestRepo struct {
	t *table[models.TransportRequest]
}

var _ requestRepo.RequestRepository = (*RequestRepo)(nil)

func NewRequestRepo() *RequestRepo {
	return &RequestRepo{t: newTable(func(r models.TransportRequest) models.TransportRequest {
		r.Photos = append([]string(nil), r.Photos...)
		r.TransporterInterests = append([]string{}, r.TransporterInterests...)
		return r
	})}
}

func in[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func requestMatches(f models.RequestFilter) func(models.TransportRequest) bool {
	return func(r models.TransportRequest) bool {
		switch {
		case f.ClientID != "" && r.ClientID != f.ClientID:
			return false
		case f.AssignedTransporterID != "" && r.AssignedTransporterID != f.AssignedTransporterID:
			return false
		case f.AssignedToID != "" && r.AssignedToID != f.AssignedToID:
			return false
		case len(f.Statuses) > 0 && !in(f.Statuses, r.Status):
			return false
		case len(f.CoordinationStatuses) > 0 && !in(f.CoordinationStatuses, r.CoordinationStatus):
			return false
		case len(f.PaymentStatuses) > 0 && !in(f.PaymentStatuses, r.PaymentStatus):
			return false
		case f.FromCity != "" && r.FromCity != f.FromCity:
			return false
		case f.ToCity != "" && r.ToCity != f.ToCity:
			return false
		case f.InterestedTransporter != "" && !in(r.TransporterInterests, f.InterestedTransporter):
			return false
		}
		return true
	}
}

func (r *RequestRepo) Create(_ context.Context, req *models.TransportRequest) error {
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.TransporterInterests == nil {
		req.TransporterInterests = []string{}
	}
	ok := r.t.insert(req.ID, *req, func(existing models.TransportRequest) bool {
		return existing.ReferenceID == req.ReferenceID
	})
	if !ok {
		return apperr.Conflict("request already exists")
	}
	return nil
}

func (r *RequestRepo) GetByID(_ context.Context, id string) (*models.TransportRequest, error) {
	req, ok := r.t.get(id)
	if !ok {
		return nil, apperr.NotFound("request not found")
	}
	return &req, nil
}

func (r *RequestRepo) Update(_ context.Context, req *models.TransportRequest) error {
	req.UpdatedAt = time.Now()
	found, _ := r.t.update(req.ID, func(stored *models.TransportRequest) error {
		req.Version = stored.Version + 1
		*stored = r.t.cp(*req)
		return nil
	})
	if !found {
		return apperr.NotFound("request not found")
	}
	return nil
}

func (r *RequestRepo) UpdateGuarded(_ context.Context, req *models.TransportRequest, expect workflow.State) error {
	req.UpdatedAt = time.Now()
	found, err := r.t.update(req.ID, func(stored *models.TransportRequest) error {
		if stored.State() != expect || stored.Version != req.Version {
			return apperr.Conflict("Request was modified concurrently")
		}
		next := r.t.cp(*req)
		next.Version++
		*stored = next
		req.Version = next.Version
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return apperr.Conflict("Request was modified concurrently")
	}
	return nil
}

func (r *RequestRepo) Delete(_ context.Context, id string) error {
	if !r.t.remove(id) {
		return apperr.NotFound("request not found")
	}
	return nil
}

func (r *RequestRepo) List(_ context.Context, filter models.RequestFilter) ([]models.TransportRequest, error) {
	return limit(r.t.find(requestMatches(filter)), filter.Limit), nil
}

func (r *RequestRepo) Count(_ context.Context, filter models.RequestFilter) (int64, error) {
	return int64(len(r.t.find(requestMatches(filter)))), nil
}

func (r *RequestRepo) AddInterest(_ context.Context, id, transporterID string) (bool, error) {
	added := false
	found, _ := r.t.update(id, func(req *models.TransportRequest) error {
		if !req.HasInterest(transporterID) {
			req.TransporterInterests = append(req.TransporterInterests, transporterID)
			req.UpdatedAt = time.Now()
			req.Version++
			added = true
		}
		return nil
	})
	if !found {
		return false, apperr.NotFound("request not found")
	}
	return added, nil
}

func (r *RequestRepo) RemoveInterest(_ context.Context, id, transporterID string) (bool, error) {
	removed := false
	r.t.update(id, func(req *models.TransportRequest) error {
		kept := req.TransporterInterests[:0]
		for _, tid := range req.TransporterInterests {
			if tid == transporterID {
				removed = true
				continue
			}
			kept = append(kept, tid)
		}
		req.TransporterInterests = kept
		if removed {
			req.UpdatedAt = time.Now()
			req.Version++
		}
		return nil
	})
	return removed, nil
}

func (r *RequestRepo) StatusPairs(_ context.Context) ([]models.StatusPair, error) {
	counts := map[workflow.State]int64{}
	var order []workflow.State
	for _, req := range r.t.find(nil) {
		s := req.State()
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}
	pairs := make([]models.StatusPair, 0, len(order))
	for _, s := range order {
		pairs = append(pairs, models.StatusPair{Status: s.Status, Coordination: s.Coordination, Count: counts[s]})
	}
	return pairs, nil
}

func (r *RequestRepo) DeleteByClient(_ context.Context, clientID string) ([]string, error) {
	ids := r.t.removeWhere(func(req models.TransportRequest) bool { return req.ClientID == clientID })
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *RequestRepo) ForgetTransporter(ctx context.Context, transporterID string) error {
	for _, req := range r.t.find(func(req models.TransportRequest) bool { return req.HasInterest(transporterID) }) {
		if _, err := r.RemoveInterest(ctx, req.ID, transporterID); err != nil {
			return err
		}
	}
	return nil
}
