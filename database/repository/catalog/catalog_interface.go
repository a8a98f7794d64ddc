package catalogRepo

import (
	"context"

	"camionback/models"
)

// CatalogRepository holds the admin-managed reference data: cities, stories,
// coordination tags and the settings row.
type CatalogRepository interface {
	ListCities(ctx context.Context) ([]models.City, error)
	CreateCity(ctx context.Context, city *models.City) error
	UpdateCity(ctx context.Context, city *models.City) error
	DeleteCity(ctx context.Context, id string) error

	ListStories(ctx context.Context, activeOnly bool) ([]models.Story, error)
	GetStory(ctx context.Context, id string) (*models.Story, error)
	CreateStory(ctx context.Context, story *models.Story) error
	UpdateStory(ctx context.Context, story *models.Story) error
	DeleteStory(ctx context.Context, id string) error

	ListCoordinationStatuses(ctx context.Context) ([]models.CoordinationStatusConfig, error)
	GetCoordinationStatus(ctx context.Context, id string) (*models.CoordinationStatusConfig, error)
	GetCoordinationStatusByValue(ctx context.Context, value string) (*models.CoordinationStatusConfig, error)
	CreateCoordinationStatus(ctx context.Context, s *models.CoordinationStatusConfig) error
	UpdateCoordinationStatus(ctx context.Context, s *models.CoordinationStatusConfig) error
	DeleteCoordinationStatus(ctx context.Context, id string) error

	// GetSettings returns the settings row, or a not-found error before the
	// first save.
	GetSettings(ctx context.Context) (*models.AdminSettings, error)
	SaveSettings(ctx context.Context, settings *models.AdminSettings) error
}
