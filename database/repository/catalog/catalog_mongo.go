package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"camionback/database"
	"camionback/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepo implements CatalogRepository over four small collections.
type MongoCatalogRepo struct {
	cities   *mongo.Collection
	stories  *mongo.Collection
	statuses *mongo.Collection
	settings *mongo.Collection
}

func NewMongoCatalogRepo() CatalogRepository {
	repo := &MongoCatalogRepo{
		cities:   database.Collection("cities"),
		stories:  database.Collection("stories"),
		statuses: database.Collection("coordination_statuses"),
		settings: database.Collection("admin_settings"),
	}
	unique := options.Index().SetUnique(true)
	database.EnsureIndexes(repo.cities, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
	})
	database.EnsureIndexes(repo.stories, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
	})
	database.EnsureIndexes(repo.statuses, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "value", Value: 1}}, Options: unique},
	})
	return repo
}

func byField(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: 1}})
}

func (r *MongoCatalogRepo) ListCities(ctx context.Context) ([]models.City, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.City](ctx, r.cities, bson.M{}, byField("name"))
}

func (r *MongoCatalogRepo) CreateCity(ctx context.Context, city *models.City) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	city.CreatedAt = time.Now()
	_, err := r.cities.InsertOne(ctx, city)
	return database.InsertErr(err, "city")
}

func (r *MongoCatalogRepo) UpdateCity(ctx context.Context, city *models.City) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.cities.UpdateOne(ctx, bson.M{"id": city.ID}, bson.M{"$set": bson.M{"name": city.Name}})
	return database.MatchedErr(res, err, "city")
}

func (r *MongoCatalogRepo) DeleteCity(ctx context.Context, id string) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.cities.DeleteOne(ctx, bson.M{"id": id})
	return database.DeletedErr(res, err, "city")
}

func (r *MongoCatalogRepo) ListStories(ctx context.Context, activeOnly bool) ([]models.Story, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	return database.FindAll[models.Story](ctx, r.stories, filter, byField("displayOrder"))
}

func (r *MongoCatalogRepo) GetStory(ctx context.Context, id string) (*models.Story, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.Story](ctx, r.stories, bson.M{"id": id}, "story")
}

func (r *MongoCatalogRepo) CreateStory(ctx context.Context, story *models.Story) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	story.CreatedAt = now
	story.UpdatedAt = now
	_, err := r.stories.InsertOne(ctx, story)
	return database.InsertErr(err, "story")
}

func (r *MongoCatalogRepo) UpdateStory(ctx context.Context, story *models.Story) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	story.UpdatedAt = time.Now()
	res, err := r.stories.ReplaceOne(ctx, bson.M{"id": story.ID}, story)
	return database.MatchedErr(res, err, "story")
}

func (r *MongoCatalogRepo) DeleteStory(ctx context.Context, id string) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.stories.DeleteOne(ctx, bson.M{"id": id})
	return database.DeletedErr(res, err, "story")
}

func (r *MongoCatalogRepo) ListCoordinationStatuses(ctx context.Context) ([]models.CoordinationStatusConfig, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.CoordinationStatusConfig](ctx, r.statuses, bson.M{}, byField("displayOrder"))
}

func (r *MongoCatalogRepo) GetCoordinationStatus(ctx context.Context, id string) (*models.CoordinationStatusConfig, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.CoordinationStatusConfig](ctx, r.statuses, bson.M{"id": id}, "coordination status")
}

func (r *MongoCatalogRepo) GetCoordinationStatusByValue(ctx context.Context, value string) (*models.CoordinationStatusConfig, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.CoordinationStatusConfig](ctx, r.statuses, bson.M{"value": value}, "coordination status")
}

func (r *MongoCatalogRepo) CreateCoordinationStatus(ctx context.Context, s *models.CoordinationStatusConfig) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.statuses.InsertOne(ctx, s)
	return database.InsertErr(err, "coordination status")
}

func (r *MongoCatalogRepo) UpdateCoordinationStatus(ctx context.Context, s *models.CoordinationStatusConfig) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.UpdatedAt = time.Now()
	res, err := r.statuses.ReplaceOne(ctx, bson.M{"id": s.ID}, s)
	return database.MatchedErr(res, err, "coordination status")
}

func (r *MongoCatalogRepo) DeleteCoordinationStatus(ctx context.Context, id string) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.statuses.DeleteOne(ctx, bson.M{"id": id})
	return database.DeletedErr(res, err, "coordination status")
}

func (r *MongoCatalogRepo) GetSettings(ctx context.Context) (*models.AdminSettings, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.AdminSettings](ctx, r.settings, bson.M{"id": models.SettingsID}, "settings")
}

func (r *MongoCatalogRepo) SaveSettings(ctx context.Context, settings *models.AdminSettings) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	settings.ID = models.SettingsID
	settings.UpdatedAt = time.Now()
	_, err := r.settings.ReplaceOne(ctx, bson.M{"id": models.SettingsID}, settings, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
