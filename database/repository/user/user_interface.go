package userRepo

import (
	"context"

	"camionback/models"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// Create inserts a new user. A taken phone number is a conflict.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	// Update replaces the stored user document.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Count(ctx context.Context, filter models.UserFilter) (int64, error)
	// ApplyRating folds score into the running average and counts one more
	// finished trip, atomically.
	ApplyRating(ctx context.Context, id string, score int) (*models.User, error)
}
