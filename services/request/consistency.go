package request

import (
	"context"
	"strconv"

	"camionback/models"
	"camionback/services/audit"
	"camionback/services/workflow"

	"go.uber.org/zap"
)

// CheckConsistency reports every stored (status, coordinationStatus) pair
// outside the allowed pairing.
func (s *DefaultRequestService) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	pairs, err := s.repos.Requests.StatusPairs(ctx)
	if err != nil {
		return nil, err
	}
	report := &ConsistencyReport{Inconsistent: []models.StatusPair{}}
	for _, p := range pairs {
		report.Total += p.Count
		if !workflow.ConsistentPair(p.Status, p.Coordination) {
			report.Inconsistent = append(report.Inconsistent, p)
		}
	}
	return report, nil
}

// Repair rewrites the coordination phase of every inconsistent request to the
// one its status implies. It returns how many requests were fixed.
func (s *DefaultRequestService) Repair(ctx context.Context, adminID string) (int, error) {
	report, err := s.CheckConsistency(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, p := range report.Inconsistent {
		reqs, err := s.repos.Requests.List(ctx, models.RequestFilter{
			Statuses:             []workflow.RequestStatus{p.Status},
			CoordinationStatuses: []workflow.CoordinationStatus{p.Coordination},
		})
		if err != nil {
			return fixed, err
		}
		for i := range reqs {
			req := &reqs[i]
			from := req.State()
			req.CoordinationStatus = workflow.ExpectedCoordination(req.Status, req.HasPricing())
			if err := s.repos.Requests.UpdateGuarded(ctx, req, from); err != nil {
				s.logger.Warn("failed to repair request", zap.String("requestId", req.ID), zap.Error(err))
				continue
			}
			fixed++
		}
	}
	if fixed > 0 {
		s.audit.Record(ctx, adminID, "repair_consistency", audit.TargetRequest, "", map[string]string{"fixed": strconv.Itoa(fixed)})
	}
	return fixed, nil
}
