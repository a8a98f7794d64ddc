package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"camionback/apperr"
	catalogRepo "camionback/database/repository/catalog"
	transporterRepo "camionback/database/repository/transporter"
	"camionback/models"
)

type CatalogRepo struct {
	cities   *table[models.City]
	stories  *table[models.Story]
	statuses *table[models.CoordinationStatusConfig]

	mu       sync.RWMutex
	settings *models.AdminSettings
}

var _ catalogRepo.CatalogRepository = (*CatalogRepo)(nil)

func NewCatalogRepo() *CatalogRepo {
	return &CatalogRepo{
		cities:   newTable[models.City](nil),
		stories:  newTable[models.Story](nil),
		statuses: newTable[models.CoordinationStatusConfig](nil),
	}
}

func (r *CatalogRepo) ListCities(_ context.Context) ([]models.City, error) {
	cities := r.cities.find(nil)
	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	return cities, nil
}

func (r *CatalogRepo) CreateCity(_ context.Context, city *models.City) error {
	city.CreatedAt = time.Now()
	if !r.cities.insert(city.ID, *city, func(c models.City) bool { return c.Name == city.Name }) {
		return apperr.Conflict("city already exists")
	}
	return nil
}

func (r *CatalogRepo) UpdateCity(_ context.Context, city *models.City) error {
	found, _ := r.cities.update(city.ID, func(c *models.City) error {
		c.Name = city.Name
		return nil
	})
	if !found {
		return apperr.NotFound("city not found")
	}
	return nil
}

func (r *CatalogRepo) DeleteCity(_ context.Context, id string) error {
	if !r.cities.remove(id) {
		return apperr.NotFound("city not found")
	}
	return nil
}

func (r *CatalogRepo) ListStories(_ context.Context, activeOnly bool) ([]models.Story, error) {
	stories := r.stories.find(func(s models.Story) bool { return !activeOnly || s.IsActive })
	sort.SliceStable(stories, func(i, j int) bool { return stories[i].DisplayOrder < stories[j].DisplayOrder })
	return stories, nil
}

func (r *CatalogRepo) GetStory(_ context.Context, id string) (*models.Story, error) {
	s, ok := r.stories.get(id)
	if !ok {
		return nil, apperr.NotFound("story not found")
	}
	return &s, nil
}

func (r *CatalogRepo) CreateStory(_ context.Context, story *models.Story) error {
	now := time.Now()
	story.CreatedAt = now
	story.UpdatedAt = now
	r.stories.insert(story.ID, *story, nil)
	return nil
}

func (r *CatalogRepo) UpdateStory(_ context.Context, story *models.Story) error {
	story.UpdatedAt = time.Now()
	found, _ := r.stories.update(story.ID, func(s *models.Story) error {
		*s = *story
		return nil
	})
	if !found {
		return apperr.NotFound("story not found")
	}
	return nil
}

func (r *CatalogRepo) DeleteStory(_ context.Context, id string) error {
	if !r.stories.remove(id) {
		return apperr.NotFound("story not found")
	}
	return nil
}

func (r *CatalogRepo) ListCoordinationStatuses(_ context.Context) ([]models.CoordinationStatusConfig, error) {
	rows := r.statuses.find(nil)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DisplayOrder < rows[j].DisplayOrder })
	return rows, nil
}

func (r *CatalogRepo) GetCoordinationStatus(_ context.Context, id string) (*models.CoordinationStatusConfig, error) {
	s, ok := r.statuses.get(id)
	if !ok {
		return nil, apperr.NotFound("coordination status not found")
	}
	return &s, nil
}

func (r *CatalogRepo) GetCoordinationStatusByValue(_ context.Context, value string) (*models.CoordinationStatusConfig, error) {
	s, ok := r.statuses.first(func(s models.CoordinationStatusConfig) bool { return s.Value == value })
	if !ok {
		return nil, apperr.NotFound("coordination status not found")
	}
	return &s, nil
}

func (r *CatalogRepo) CreateCoordinationStatus(_ context.Context, s *models.CoordinationStatusConfig) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if !r.statuses.insert(s.ID, *s, func(x models.CoordinationStatusConfig) bool { return x.Value == s.Value }) {
		return apperr.Conflict("coordination status already exists")
	}
	return nil
}

func (r *CatalogRepo) UpdateCoordinationStatus(_ context.Context, s *models.CoordinationStatusConfig) error {
	s.UpdatedAt = time.Now()
	found, _ := r.statuses.update(s.ID, func(x *models.CoordinationStatusConfig) error {
		*x = *s
		return nil
	})
	if !found {
		return apperr.NotFound("coordination status not found")
	}
	return nil
}

func (r *CatalogRepo) DeleteCoordinationStatus(_ context.Context, id string) error {
	if !r.statuses.remove(id) {
		return apperr.NotFound("coordination status not found")
	}
	return nil
}

func (r *CatalogRepo) GetSettings(_ context.Context) (*models.AdminSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return nil, apperr.NotFound("settings not found")
	}
	s := *r.settings
	return &s, nil
}

func (r *CatalogRepo) SaveSettings(_ context.Context, settings *models.AdminSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	settings.ID = models.SettingsID
	settings.UpdatedAt = time.Now()
	s := *settings
	r.settings = &s
	return nil
}

type TransporterRepo struct {
	returns    *table[models.EmptyReturn]
	references *table[models.TransporterReference]
}

var _ transporterRepo.TransporterRepository = (*TransporterRepo)(nil)

func NewTransporterRepo() *TransporterRepo {
	return &TransporterRepo{
		returns:    newTable[models.EmptyReturn](nil),
		references: newTable[models.TransporterReference](nil),
	}
}

func (r *TransporterRepo) CreateEmptyReturn(_ context.Context, er *models.EmptyReturn) error {
	er.CreatedAt = time.Now()
	r.returns.insert(er.ID, *er, nil)
	return nil
}

func (r *TransporterRepo) GetEmptyReturn(_ context.Context, id string) (*models.EmptyReturn, error) {
	er, ok := r.returns.get(id)
	if !ok {
		return nil, apperr.NotFound("empty return not found")
	}
	return &er, nil
}

func (r *TransporterRepo) ListEmptyReturns(_ context.Context, transporterID string, activeOnly bool) ([]models.EmptyReturn, error) {
	rows := r.returns.find(func(er models.EmptyReturn) bool {
		return (transporterID == "" || er.TransporterID == transporterID) && (!activeOnly || er.IsActive)
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ReturnDate.Before(rows[j].ReturnDate) })
	return rows, nil
}

func (r *TransporterRepo) UpdateEmptyReturn(_ context.Context, er *models.EmptyReturn) error {
	found, _ := r.returns.update(er.ID, func(x *models.EmptyReturn) error {
		*x = *er
		return nil
	})
	if !found {
		return apperr.NotFound("empty return not found")
	}
	return nil
}

func (r *TransporterRepo) ExpireEmptyReturns(_ context.Context, cutoff time.Time) (int64, error) {
	return r.returns.updateWhere(
		func(er models.EmptyReturn) bool { return er.IsActive && er.ReturnDate.Before(cutoff) },
		func(er *models.EmptyReturn) { er.IsActive = false },
	), nil
}

func (r *TransporterRepo) DeleteEmptyReturnsByTransporter(_ context.Context, transporterID string) error {
	r.returns.removeWhere(func(er models.EmptyReturn) bool { return er.TransporterID == transporterID })
	return nil
}

func (r *TransporterRepo) CreateReference(_ context.Context, ref *models.TransporterReference) error {
	now := time.Now()
	ref.CreatedAt = now
	ref.UpdatedAt = now
	r.references.insert(ref.ID, *ref, nil)
	return nil
}

func (r *TransporterRepo) GetReference(_ context.Context, id string) (*models.TransporterReference, error) {
	ref, ok := r.references.get(id)
	if !ok {
		return nil, apperr.NotFound("reference not found")
	}
	return &ref, nil
}

func (r *TransporterRepo) ListReferences(_ context.Context, transporterID string, status models.ReferenceStatus) ([]models.TransporterReference, error) {
	return r.references.find(func(ref models.TransporterReference) bool {
		return (transporterID == "" || ref.TransporterID == transporterID) && (status == "" || ref.Status == status)
	}), nil
}

func (r *TransporterRepo) UpdateReference(_ context.Context, ref *models.TransporterReference) error {
	ref.UpdatedAt = time.Now()
	found, _ := r.references.update(ref.ID, func(x *models.TransporterReference) error {
		*x = *ref
		return nil
	})
	if !found {
		return apperr.NotFound("reference not found")
	}
	return nil
}

func (r *TransporterRepo) DeleteReferencesByTransporter(_ context.Context, transporterID string) error {
	r.references.removeWhere(func(ref models.TransporterReference) bool { return ref.TransporterID == transporterID })
	return nil
}
