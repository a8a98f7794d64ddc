package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"camionback/apperr"
	"camionback/models"
	"camionback/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	clientIDSequence  = "clientId"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// NormalizePhone strips the separators people type into phone fields.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(strings.TrimSpace(phone))
}

// FormatClientID renders the n-th client number.
func FormatClientID(n int64) string {
	return fmt.Sprintf("C-%04d", n)
}

func validateCredentials(phone, password string) error {
	if !phonePattern.MatchString(phone) {
		return apperr.Validation("Invalid phone number")
	}
	if len(password) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *DefaultUserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
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
		AccountStatus: models.AccountActive,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("userId", u.ID))
	return u, nil
}

// Login checks the password before the account status so a blocked user
// with valid credentials learns they are blocked.
func (s *DefaultUserService) Login(ctx context.Context, phone, password string) (*models.User, error) {
	u, err := s.repos.Users.GetByPhone(ctx, NormalizePhone(phone))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized("Invalid phone number or password")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("Invalid phone number or password")
	}
	if u.Blocked() {
		s.logger.Info("blocked user attempted login", zap.String("userId", u.ID))
		return nil, apperr.Blocked()
	}
	return u, nil
}

func (s *DefaultUserService) SelectRole(ctx context.Context, userID string, in SelectRoleInput) (*models.User, error) {
	if in.Role != models.RoleClient && in.Role != models.RoleTransporter {
		return nil, apperr.Validation("Role must be client or transporteur")
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.City) == "" {
		return nil, apperr.Validation("Name and city are required")
	}
	if in.Role == models.RoleTransporter && strings.TrimSpace(in.TruckType) == "" {
		return nil, apperr.Validation("Truck type is required for transporters")
	}

	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleNone {
		return nil, apperr.Conflict("Role already selected")
	}

	u.Role = in.Role
	u.Name = strings.TrimSpace(in.Name)
	u.City = strings.TrimSpace(in.City)
	u.Email = strings.TrimSpace(in.Email)

	switch in.Role {
	case models.RoleClient:
		n, err := s.repos.Counters.Next(ctx, clientIDSequence)
		if err != nil {
			return nil, err
		}
		u.ClientID = FormatClientID(n)
	case models.RoleTransporter:
		u.Status = models.TransporterPending
		u.TruckType = strings.TrimSpace(in.TruckType)
		u.Capacity = strings.TrimSpace(in.Capacity)
		u.TruckPhotos = in.TruckPhotos
	}

	if err := s.repos.Users.Update(ctx, u); err != nil {
		return nil, err
	}

	if u.Role == models.RoleTransporter {
		s.notifier.Notify(ctx, notification.Event{
			Kind:       notification.KindTransporterSignup,
			Title:      "Nouveau transporteur à valider",
			Body:       fmt.Sprintf("%s (%s, %s) attend la validation de son compte.", u.Name, u.PhoneNumber, u.City),
			EmailAdmin: true,
		})
	}
	return u, nil
}

func (s *DefaultUserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.repos.Users.GetByID(ctx, userID)
}

func (s *DefaultUserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&u.Name, in.Name)
	set(&u.City, in.City)
	set(&u.Email, in.Email)
	if u.Role == models.RoleTransporter {
		set(&u.TruckType, in.TruckType)
		set(&u.Capacity, in.Capacity)
	}
	if err := s.repos.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *DefaultUserService) UpdateDeviceToken(ctx context.Context, userID, token string) error {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	u.DeviceToken = strings.TrimSpace(token)
	return s.repos.Users.Update(ctx, u)
}

func (s *DefaultUserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.Unauthorized("Current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.repos.Users.Update(ctx, u)
}
