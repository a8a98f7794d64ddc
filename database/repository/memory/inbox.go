package memory

import (
	"context"
	"sync"
	"time"

	"camionback/apperr"
	auditRepo "camionback/database/repository/audit"
	counterRepo "camionback/database/repository/counter"
	notificationRepo "camionback/database/repository/notification"
	ratingRepo "camionback/database/repository/rating"
	reportRepo "camionback/database/repository/report"
	"camionback/models"
)

type NotificationRepo struct {
	t *table[models.Notification]
}

var _ notificationRepo.NotificationRepository = (*NotificationRepo)(nil)

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{t: newTable[models.Notification](nil)}
}

func (r *NotificationRepo) Create(_ context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if !r.t.insert(n.ID, *n, nil) {
		return apperr.Conflict("notification already exists")
	}
	return nil
}

func (r *NotificationRepo) ListByUser(_ context.Context, userID string, n int64) ([]models.Notification, error) {
	return limit(r.t.find(func(x models.Notification) bool { return x.UserID == userID }), n), nil
}

func (r *NotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	return int64(len(r.t.find(func(x models.Notification) bool { return x.UserID == userID && !x.Read }))), nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	n, ok := r.t.get(id)
	if !ok || n.UserID != userID {
		return apperr.NotFound("notification not found")
	}
	r.t.update(id, func(x *models.Notification) error {
		x.Read = true
		return nil
	})
	return nil
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	return r.t.updateWhere(
		func(x models.Notification) bool { return x.UserID == userID && !x.Read },
		func(x *models.Notification) { x.Read = true },
	), nil
}

func (r *NotificationRepo) DeleteByUser(_ context.Context, userID string) error {
	r.t.removeWhere(func(x models.Notification) bool { return x.UserID == userID })
	return nil
}

type RatingRepo struct {
	t *table[models.Rating]
}

var _ ratingRepo.RatingRepository = (*RatingRepo)(nil)

func NewRatingRepo() *RatingRepo {
	return &RatingRepo{t: newTable[models.Rating](nil)}
}

func (r *RatingRepo) Create(_ context.Context, rating *models.Rating) error {
	rating.CreatedAt = time.Now()
	if !r.t.insert(rating.ID, *rating, func(x models.Rating) bool { return x.RequestID == rating.RequestID }) {
		return apperr.Conflict("This request has already been rated")
	}
	return nil
}

func (r *RatingRepo) GetByRequest(_ context.Context, requestID string) (*models.Rating, error) {
	x, ok := r.t.first(func(x models.Rating) bool { return x.RequestID == requestID })
	if !ok {
		return nil, apperr.NotFound("rating not found")
	}
	return &x, nil
}

func (r *RatingRepo) ListByTransporter(_ context.Context, transporterID string) ([]models.Rating, error) {
	return r.t.find(func(x models.Rating) bool { return x.TransporterID == transporterID }), nil
}

type AuditRepo struct {
	logs  *table[models.CoordinatorLog]
	notes *table[models.RequestNote]
	sms   *table[models.SmsHistory]
}

var _ auditRepo.AuditRepository = (*AuditRepo)(nil)

func NewAuditRepo() *AuditRepo {
	return &AuditRepo{
		logs:  newTable[models.CoordinatorLog](nil),
		notes: newTable[models.RequestNote](nil),
		sms:   newTable[models.SmsHistory](nil),
	}
}

func (r *AuditRepo) AddLog(_ context.Context, entry *models.CoordinatorLog) error {
	entry.CreatedAt = time.Now()
	r.logs.insert(entry.ID, *entry, nil)
	return nil
}

func (r *AuditRepo) ListLogs(_ context.Context, f auditRepo.LogFilter) ([]models.CoordinatorLog, error) {
	rows := r.logs.find(func(x models.CoordinatorLog) bool {
		return (f.CoordinatorID == "" || x.CoordinatorID == f.CoordinatorID) && (f.TargetID == "" || x.TargetID == f.TargetID)
	})
	return limit(rows, f.Limit), nil
}

func (r *AuditRepo) AddNote(_ context.Context, note *models.RequestNote) error {
	note.CreatedAt = time.Now()
	r.notes.insert(note.ID, *note, nil)
	return nil
}

func (r *AuditRepo) ListNotes(_ context.Context, requestID string) ([]models.RequestNote, error) {
	return r.notes.find(func(x models.RequestNote) bool { return x.RequestID == requestID }), nil
}

func (r *AuditRepo) AddSms(_ context.Context, entry *models.SmsHistory) error {
	entry.CreatedAt = time.Now()
	r.sms.insert(entry.ID, *entry, nil)
	return nil
}

func (r *AuditRepo) ListSms(_ context.Context, n int64) ([]models.SmsHistory, error) {
	return limit(r.sms.find(nil), n), nil
}

type ReportRepo struct {
	t *table[models.Report]
}

var _ reportRepo.ReportRepository = (*ReportRepo)(nil)

func NewReportRepo() *ReportRepo {
	return &ReportRepo{t: newTable[models.Report](nil)}
}

func (r *ReportRepo) Create(_ context.Context, report *models.Report) error {
	report.CreatedAt = time.Now()
	if !r.t.insert(report.ID, *report, nil) {
		return apperr.Conflict("report already exists")
	}
	return nil
}

func (r *ReportRepo) GetByID(_ context.Context, id string) (*models.Report, error) {
	x, ok := r.t.get(id)
	if !ok {
		return nil, apperr.NotFound("report not found")
	}
	return &x, nil
}

func (r *ReportRepo) List(_ context.Context, status models.ReportStatus) ([]models.Report, error) {
	return r.t.find(func(x models.Report) bool { return status == "" || x.Status == status }), nil
}

func (r *ReportRepo) Update(_ context.Context, report *models.Report) error {
	found, _ := r.t.update(report.ID, func(x *models.Report) error {
		*x = *report
		return nil
	})
	if !found {
		return apperr.NotFound("report not found")
	}
	return nil
}

// Sequence is an in-process counter set.
type Sequence struct {
	mu   sync.Mutex
	vals map[string]int64
}

var _ counterRepo.Sequence = (*Sequence)(nil)

func NewSequence() *Sequence {
	return &Sequence{vals: map[string]int64{}}
}

func (s *Sequence) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name]++
	return s.vals[name], nil
}
