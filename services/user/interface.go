package user

import (
	"context"

	"camionback/database/repository"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"

	"go.uber.org/zap"
)

// UserService owns accounts: registration, login, role selection and the
// admin side of user management.
type UserService interface {
	// Authentication
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, phone, password string) (*models.User, error)
	SelectRole(ctx context.Context, userID string, in SelectRoleInput) (*models.User, error)

	// Profile
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error)
	UpdateDeviceToken(ctx context.Context, userID, token string) error
	ChangePassword(ctx context.Context, userID, current, next string) error

	// Admin
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	ValidateTransporter(ctx context.Context, adminID, userID string, approve bool) (*models.User, error)
	SetBlocked(ctx context.Context, adminID, userID string, blocked bool) (*models.User, error)
	DeleteUser(ctx context.Context, adminID, userID string) error
	CreateStaff(ctx context.Context, adminID string, in StaffInput) (*models.User, error)
	EnsureAdmin(ctx context.Context, phone, password, name string) error
}

type RegisterInput struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type SelectRoleInput struct {
	Role      models.Role `json:"role" binding:"required"`
	Name      string      `json:"name" binding:"required"`
	City      string      `json:"city" binding:"required"`
	Email     string      `json:"email"`
	TruckType string      `json:"truckType"`
	Capacity  string      `json:"capacity"`
	// TruckPhotos are URLs returned by the upload endpoint.
	TruckPhotos []string `json:"truckPhotos"`
}

type ProfileUpdate struct {
	Name      *string `json:"name"`
	City      *string `json:"city"`
	Email     *string `json:"email"`
	TruckType *string `json:"truckType"`
	Capacity  *string `json:"capacity"`
}

type StaffInput struct {
	PhoneNumber string      `json:"phoneNumber" binding:"required"`
	Password    string      `json:"password" binding:"required"`
	Name        string      `json:"name" binding:"required"`
	Role        models.Role `json:"role" binding:"required"`
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	repos    repository.Repos
	notifier *notification.Notifier
	audit    *audit.Recorder
	logger   *zap.Logger
}

func NewDefaultUserService(repos repository.Repos, notifier *notification.Notifier, recorder *audit.Recorder, logger *zap.Logger) *DefaultUserService {
	return &DefaultUserService{repos: repos, notifier: notifier, audit: recorder, logger: logger}
}
