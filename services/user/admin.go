package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func (s *DefaultUserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	return s.repos.Users.List(ctx, filter)
}

func (s *DefaultUserService) ValidateTransporter(ctx context.Context, adminID, userID string, approve bool) (*models.User, error) {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleTransporter {
		return nil, apperr.Validation("User is not a transporter")
	}

	ev := notification.Event{RecipientID: u.ID, SMS: true}
	action := "validate_transporter"
	if approve {
		u.Status = models.TransporterValidated
		ev.Kind = notification.KindAccountValidated
		ev.Title = "Compte validé"
		ev.Body = "Votre compte transporteur a été validé. Vous pouvez maintenant proposer vos services."
	} else {
		u.Status = models.TransporterRejected
		action = "reject_transporter"
		ev.Kind = notification.KindAccountRejected
		ev.Title = "Compte refusé"
		ev.Body = "Votre compte transporteur n'a pas été validé. Contactez le support pour plus d'informations."
	}
	if err := s.repos.Users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, adminID, action, audit.TargetUser, u.ID, nil)
	s.notifier.Notify(ctx, ev)
	return u, nil
}

func (s *DefaultUserService) SetBlocked(ctx context.Context, adminID, userID string, blocked bool) (*models.User, error) {
	if adminID == userID {
		return nil, apperr.Validation("You cannot block your own account")
	}
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin {
		return nil, apperr.Forbidden("Admin accounts cannot be blocked")
	}

	action := "unblock_user"
	u.AccountStatus = models.AccountActive
	if blocked {
		action = "block_user"
		u.AccountStatus = models.AccountBlocked
	}
	if err := s.repos.Users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, adminID, action, audit.TargetUser, u.ID, nil)
	if blocked {
		s.notifier.Notify(ctx, notification.Event{
			Kind:        notification.KindAccountBlocked,
			RecipientID: u.ID,
			Title:       "Compte bloqué",
			Body:        "Votre compte a été bloqué par l'administration.",
			SMS:         true,
		})
	}
	return u, nil
}

// DeleteUser removes an account together with everything that only makes
// sense while it exists. Cleanup errors are collected so one failing store
// does not leave the rest untouched.
func (s *DefaultUserService) DeleteUser(ctx context.Context, adminID, userID string) error {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return apperr.Forbidden("Admin accounts cannot be deleted")
	}

	var errs error
	switch u.Role {
	case models.RoleClient:
		ids, err := s.repos.Requests.DeleteByClient(ctx, u.ID)
		errs = multierr.Append(errs, err)
		for _, id := range ids {
			_, err := s.repos.Offers.DeleteByRequest(ctx, id, "")
			errs = multierr.Append(errs, err)
			if err := s.repos.Contracts.DeleteByRequest(ctx, id); err != nil && !errors.Is(err, apperr.ErrNotFound) {
				errs = multierr.Append(errs, err)
			}
		}
	case models.RoleTransporter:
		_, err := s.repos.Offers.DeleteByTransporter(ctx, u.ID)
		errs = multierr.Append(errs, err)
		errs = multierr.Append(errs, s.repos.Requests.ForgetTransporter(ctx, u.ID))
		errs = multierr.Append(errs, s.repos.Transporters.DeleteEmptyReturnsByTransporter(ctx, u.ID))
		errs = multierr.Append(errs, s.repos.Transporters.DeleteReferencesByTransporter(ctx, u.ID))
	}
	errs = multierr.Append(errs, s.repos.Notifications.DeleteByUser(ctx, u.ID))
	if errs != nil {
		s.logger.Error("user cleanup incomplete", zap.String("userId", u.ID), zap.Error(errs))
		return fmt.Errorf("failed to clean up user data: %w", errs)
	}

	if err := s.repos.Users.Delete(ctx, u.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, adminID, "delete_user", audit.TargetUser, u.ID, map[string]string{
		"role":  string(u.Role),
		"phone": u.PhoneNumber,
	})
	return nil
}

func (s *DefaultUserService) CreateStaff(ctx context.Context, adminID string, in StaffInput) (*models.User, error) {
	if !in.Role.Staff() {
		return nil, apperr.Validation("Role must be coordinateur or admin")
	}
	phone := NormalizePhone(in.PhoneNumber)
	if err := validateCredentials(phone, in.Password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:            uuid.New().String(),
		PhoneNumber:   phone,
		PasswordHash:  hash,
		Role:          in.Role,
		Name:          strings.TrimSpace(in.Name),
		AccountStatus: models.AccountActive,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, adminID, "create_staff", audit.TargetUser, u.ID, map[string]string{"role": string(u.Role)})
	return u, nil
}

// EnsureAdmin creates the bootstrap admin when no account holds phone yet.
func (s *DefaultUserService) EnsureAdmin(ctx context.Context, phone, password, name string) error {
	phone = NormalizePhone(phone)
	if phone == "" || password == "" {
		return nil
	}
	_, err := s.repos.Users.GetByPhone(ctx, phone)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u := &models.User{
		ID:            uuid.New().String(),
		PhoneNumber:   phone,
		PasswordHash:  hash,
		Role:          models.RoleAdmin,
		Name:          name,
		AccountStatus: models.AccountActive,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil && !errors.Is(err, apperr.ErrConflict) {
		return err
	}
	s.logger.Info("bootstrap admin ready", zap.String("phone", phone))
	return nil
}
