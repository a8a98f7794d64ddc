package notification

import (
	"context"
	"fmt"

	"camionback/database/repository"
	"camionback/models"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Dispatcher delivers events on every channel they ask for. A failing channel
// does not stop the others; all failures come back combined.
type Dispatcher struct {
	users      repository.UserRepository
	inbox      repository.NotificationRepository
	audit      repository.AuditRepository
	push       Pusher
	sms        SMSSender
	mail       Mailer
	adminEmail string
	logger     *zap.Logger
}

func NewDispatcher(repos repository.Repos, push Pusher, sms SMSSender, mail Mailer, adminEmail string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		users:      repos.Users,
		inbox:      repos.Notifications,
		audit:      repos.Audit,
		push:       push,
		sms:        sms,
		mail:       mail,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

func pushData(ev Event) map[string]string {
	data := map[string]string{"type": string(ev.Kind)}
	if ev.RequestID != "" {
		data["requestId"] = ev.RequestID
	}
	if ev.OfferID != "" {
		data["offerId"] = ev.OfferID
	}
	for k, v := range ev.Data {
		data[k] = v
	}
	return data
}

// Dispatch returns how many channels accepted the event next to the combined
// failures. Callers that retry should only do so when nothing went out.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (int, error) {
	var (
		errs      error
		delivered int
	)

	if ev.RecipientID != "" {
		user, err := d.users.GetByID(ctx, ev.RecipientID)
		if err != nil {
			return 0, fmt.Errorf("dispatch %s: recipient %s: %w", ev.Kind, ev.RecipientID, err)
		}
		if user.DeviceToken != "" {
			if err := d.push.Push(ctx, user.DeviceToken, ev.Title, ev.Body, pushData(ev)); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("push: %w", err))
			} else {
				delivered++
			}
		}
		if ev.SMS && user.PhoneNumber != "" {
			sendErr := d.sms.Send(ctx, user.PhoneNumber, ev.Body)
			if sendErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("sms: %w", sendErr))
			} else {
				delivered++
			}
			if recErr := d.recordSms(ctx, "user:"+user.ID, "", ev.Body, 1, sendErr); recErr != nil {
				d.logger.Warn("failed to record sms history", zap.Error(recErr))
			}
		}
	}

	if ev.EmailAdmin && d.adminEmail != "" {
		if err := d.mail.Send(ctx, d.adminEmail, ev.Title, ev.Body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("email: %w", err))
		} else {
			delivered++
		}
	}

	if errs != nil {
		d.logger.Warn("notification delivery incomplete",
			zap.String("kind", string(ev.Kind)),
			zap.String("recipientId", ev.RecipientID),
			zap.Int("delivered", delivered),
			zap.Error(errs))
	}
	return delivered, errs
}

func audienceFilters(a Audience) []models.UserFilter {
	active := models.AccountActive
	switch a {
	case AudienceClients:
		return []models.UserFilter{{Role: models.RoleClient, AccountStatus: active}}
	case AudienceTransporters:
		return []models.UserFilter{{Role: models.RoleTransporter, AccountStatus: active}}
	case AudienceValidatedTransporters:
		return []models.UserFilter{{Role: models.RoleTransporter, Status: models.TransporterValidated, AccountStatus: active}}
	}
	return []models.UserFilter{
		{Role: models.RoleClient, AccountStatus: active},
		{Role: models.RoleTransporter, AccountStatus: active},
	}
}

// Broadcast sends b.Event to each member of the audience and records one SMS
// history row for the campaign. It returns how many users were reached.
func (d *Dispatcher) Broadcast(ctx context.Context, b Broadcast) (int, error) {
	var (
		errs   error
		sent   int
		failed int
	)
	for _, f := range audienceFilters(b.Audience) {
		users, err := d.users.List(ctx, f)
		if err != nil {
			return sent, fmt.Errorf("broadcast: list %s: %w", f.Role, err)
		}
		for _, u := range users {
			if b.Inbox {
				row := &models.Notification{
					ID:               uuid.New().String(),
					UserID:           u.ID,
					Type:             string(b.Event.Kind),
					Title:            b.Event.Title,
					Message:          b.Event.Body,
					RelatedRequestID: b.Event.RequestID,
				}
				if err := d.inbox.Create(ctx, row); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("inbox %s: %w", u.ID, err))
				}
			}
			if u.DeviceToken != "" {
				if err := d.push.Push(ctx, u.DeviceToken, b.Event.Title, b.Event.Body, pushData(b.Event)); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("push %s: %w", u.ID, err))
				}
			}
			if b.Event.SMS {
				if err := d.sms.Send(ctx, u.PhoneNumber, b.Event.Body); err != nil {
					failed++
					errs = multierr.Append(errs, fmt.Errorf("sms %s: %w", u.ID, err))
					continue
				}
			}
			sent++
		}
	}

	if b.Event.SMS {
		entry := &models.SmsHistory{
			ID:             uuid.New().String(),
			SenderID:       b.SenderID,
			TargetAudience: string(b.Audience),
			Message:        b.Event.Body,
			RecipientCount: sent,
			FailedCount:    failed,
		}
		errs = multierr.Append(errs, d.audit.AddSms(ctx, entry))
	}

	d.logger.Info("broadcast delivered",
		zap.String("audience", string(b.Audience)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
	return sent, errs
}

func (d *Dispatcher) recordSms(ctx context.Context, target, senderID, message string, count int, sendErr error) error {
	entry := &models.SmsHistory{
		ID:             uuid.New().String(),
		SenderID:       senderID,
		TargetAudience: target,
		Message:        message,
		RecipientCount: count,
	}
	if sendErr != nil {
		entry.RecipientCount = 0
		entry.FailedCount = count
	}
	return d.audit.AddSms(ctx, entry)
}

// SendDirect texts one phone number outside any event flow.
func (d *Dispatcher) SendDirect(ctx context.Context, senderID, phone, message string) error {
	err := d.sms.Send(ctx, phone, message)
	if recErr := d.recordSms(ctx, "phone:"+phone, senderID, message, 1, err); recErr != nil {
		d.logger.Warn("failed to record sms history", zap.Error(recErr))
	}
	return err
}
