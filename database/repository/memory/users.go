package memory

import (
	"context"
	"time"

	"camionback/apperr"
	userRepo "camionback/database/repository/user"
	"camionback/models"
)

type UserRepo struct {
	t *table[models.User]
}

var _ userRepo.UserRepository = (*UserRepo)(nil)

func NewUserRepo() *UserRepo {
	return &UserRepo{t: newTable(func(u models.User) models.User {
		u.TruckPhotos = append([]string(nil), u.TruckPhotos...)
		return u
	})}
}

func userMatches(f models.UserFilter) func(models.User) bool {
	return func(u models.User) bool {
		return (f.Role == "" || u.Role == f.Role) &&
			(f.Status == "" || u.Status == f.Status) &&
			(f.AccountStatus == "" || u.AccountStatus == f.AccountStatus)
	}
}

func (r *UserRepo) Create(_ context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	ok := r.t.insert(user.ID, *user, func(existing models.User) bool {
		return existing.PhoneNumber == user.PhoneNumber ||
			(user.ClientID != "" && existing.ClientID == user.ClientID)
	})
	if !ok {
		return apperr.Conflict("Phone number already registered")
	}
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.t.get(id)
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (r *UserRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	u, ok := r.t.first(func(u models.User) bool { return u.PhoneNumber == phone })
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (r *UserRepo) GetByIDs(_ context.Context, ids []string) ([]models.User, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.t.find(func(u models.User) bool { return want[u.ID] }), nil
}

func (r *UserRepo) Update(_ context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	found, err := r.t.update(user.ID, func(u *models.User) error {
		*u = *user
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	if !r.t.remove(id) {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *UserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	return r.t.find(userMatches(filter)), nil
}

func (r *UserRepo) Count(_ context.Context, filter models.UserFilter) (int64, error) {
	return int64(len(r.t.find(userMatches(filter)))), nil
}

func (r *UserRepo) ApplyRating(_ context.Context, id string, score int) (*models.User, error) {
	var out models.User
	found, err := r.t.update(id, func(u *models.User) error {
		u.Rating = (u.Rating*float64(u.TotalRatings) + float64(score)) / float64(u.TotalRatings+1)
		u.TotalRatings++
		u.TotalTrips++
		u.UpdatedAt = time.Now()
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NotFound("user not found")
	}
	return &out, nil
}
