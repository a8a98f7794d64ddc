package admin

import (
	"context"
	"errors"
	"strconv"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/pricing"
	"camionback/services/workflow"
)

// GetSettings returns the stored settings, or the configured defaults before
// an admin has saved any.
func (s *DefaultAdminService) GetSettings(ctx context.Context) (*models.AdminSettings, error) {
	stored, err := s.repos.Catalog.GetSettings(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return &models.AdminSettings{ID: models.SettingsID, CommissionRate: s.defaultRate}, nil
	}
	return stored, err
}

// Current makes the admin service the pricing.Source of every calculation.
func (s *DefaultAdminService) Current(ctx context.Context) (pricing.Settings, error) {
	stored, err := s.GetSettings(ctx)
	if err != nil {
		return pricing.Settings{}, err
	}
	return pricing.Settings{CommissionRate: stored.CommissionRate}, nil
}

func (s *DefaultAdminService) UpdateSettings(ctx context.Context, adminID string, in pricing.Settings) (*models.AdminSettings, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	settings := &models.AdminSettings{
		ID:             models.SettingsID,
		CommissionRate: in.CommissionRate,
		UpdatedBy:      adminID,
		UpdatedAt:      s.now(),
	}
	if err := s.repos.Catalog.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "update_settings", audit.TargetSettings, models.SettingsID, map[string]string{
		"commissionRate": strconv.FormatFloat(in.CommissionRate, 'f', -1, 64),
	})
	return settings, nil
}

// Stats is the admin dashboard summary.
type Stats struct {
	Clients             int64                            `json:"clients"`
	Transporters        int64                            `json:"transporters"`
	PendingTransporters int64                            `json:"pendingTransporters"`
	BlockedUsers        int64                            `json:"blockedUsers"`
	Requests            map[workflow.RequestStatus]int64 `json:"requests"`
	PendingPayments     int64                            `json:"pendingPayments"`
	OpenReports         int                              `json:"openReports"`
	Commission          string                           `json:"commission"`
	Volume              string                           `json:"volume"`
}

var collected = []workflow.PaymentStatus{
	workflow.PaymentPaidByClient, workflow.PaymentPaidByCamionback, workflow.PaymentPaid,
}

func (s *DefaultAdminService) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Requests: map[workflow.RequestStatus]int64{}}
	counts := []struct {
		dst *int64
		f   models.UserFilter
	}{
		{&st.Clients, models.UserFilter{Role: models.RoleClient}},
		{&st.Transporters, models.UserFilter{Role: models.RoleTransporter}},
		{&st.PendingTransporters, models.UserFilter{Role: models.RoleTransporter, Status: models.TransporterPending}},
		{&st.BlockedUsers, models.UserFilter{AccountStatus: models.AccountBlocked}},
	}
	for _, c := range counts {
		n, err := s.repos.Users.Count(ctx, c.f)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	pairs, err := s.repos.Requests.StatusPairs(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		st.Requests[p.Status] += p.Count
	}

	st.PendingPayments, err = s.repos.Requests.Count(ctx, models.RequestFilter{
		PaymentStatuses: []workflow.PaymentStatus{workflow.PaymentPendingAdminValidation},
	})
	if err != nil {
		return nil, err
	}

	paid, err := s.repos.Requests.List(ctx, models.RequestFilter{PaymentStatuses: collected})
	if err != nil {
		return nil, err
	}
	fees := make([]string, 0, len(paid))
	totals := make([]string, 0, len(paid))
	for _, r := range paid {
		fees = append(fees, r.PlatformFee)
		totals = append(totals, r.ClientTotal)
	}
	if st.Commission, err = pricing.Sum(fees...); err != nil {
		return nil, err
	}
	if st.Volume, err = pricing.Sum(totals...); err != nil {
		return nil, err
	}

	reports, err := s.repos.Reports.List(ctx, models.ReportPending)
	if err != nil {
		return nil, err
	}
	st.OpenReports = len(reports)
	return st, nil
}
