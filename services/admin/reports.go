package admin

import (
	"context"
	"strings"

	"camionback/apperr"
	"camionback/database/repository"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
)

const maxSMSLength = 480

func (s *DefaultAdminService) ListReports(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	return s.repos.Reports.List(ctx, status)
}

func (s *DefaultAdminService) ResolveReport(ctx context.Context, adminID, id, notes string) (*models.Report, error) {
	report, err := s.repos.Reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == models.ReportResolved {
		return nil, apperr.Conflict("Report already resolved")
	}
	now := s.now()
	report.Status = models.ReportResolved
	report.AdminNotes = strings.TrimSpace(notes)
	report.ResolvedAt = &now
	if err := s.repos.Reports.Update(ctx, report); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "resolve_report", audit.TargetReport, id, map[string]string{"requestId": report.RequestID})
	return report, nil
}

func validateSMS(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return apperr.Validation("Message is required")
	}
	if len(message) > maxSMSLength {
		return apperr.Validation("Message is too long")
	}
	return nil
}

// SendSMS texts one number synchronously so the admin sees gateway failures.
func (s *DefaultAdminService) SendSMS(ctx context.Context, adminID, phone, message string) error {
	if strings.TrimSpace(phone) == "" {
		return apperr.Validation("Phone number is required")
	}
	if err := validateSMS(message); err != nil {
		return err
	}
	return s.sms.SendDirect(ctx, adminID, phone, strings.TrimSpace(message))
}

func (s *DefaultAdminService) BroadcastSMS(ctx context.Context, adminID string, audience notification.Audience, message string) error {
	if !audience.Valid() {
		return apperr.Validation("Unknown audience")
	}
	if err := validateSMS(message); err != nil {
		return err
	}
	return s.notifier.Broadcast(ctx, notification.Broadcast{
		Audience: audience,
		SenderID: adminID,
		Event: notification.Event{
			Kind:  notification.KindAnnouncement,
			Title: "CamionBack",
			Body:  strings.TrimSpace(message),
			SMS:   true,
		},
	})
}

func (s *DefaultAdminService) SmsHistory(ctx context.Context, limit int64) ([]models.SmsHistory, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repos.Audit.ListSms(ctx, limit)
}

func (s *DefaultAdminService) ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.CoordinatorLog, error) {
	return s.audit.List(ctx, filter)
}
