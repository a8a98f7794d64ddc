package ratingRepo

import (
	"context"
	"time"

	"camionback/apperr"
	"camionback/database"
	"camionback/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RatingRepository stores client ratings. A request carries at most one.
type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	GetByRequest(ctx context.Context, requestID string) (*models.Rating, error)
	ListByTransporter(ctx context.Context, transporterID string) ([]models.Rating, error)
}

type MongoRatingRepo struct {
	coll *mongo.Collection
}

func NewMongoRatingRepo() RatingRepository {
	repo := &MongoRatingRepo{coll: database.Collection("ratings")}
	database.EnsureIndexes(repo.coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "requestId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "transporterId", Value: 1}}},
	})
	return repo
}

func (r *MongoRatingRepo) Create(ctx context.Context, rating *models.Rating) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rating.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, rating)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("This request has already been rated")
	}
	return database.InsertErr(err, "rating")
}

func (r *MongoRatingRepo) GetByRequest(ctx context.Context, requestID string) (*models.Rating, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.Rating](ctx, r.coll, bson.M{"requestId": requestID}, "rating")
}

func (r *MongoRatingRepo) ListByTransporter(ctx context.Context, transporterID string) ([]models.Rating, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.Rating](ctx, r.coll, bson.M{"transporterId": transporterID}, database.NewestFirst(0))
}
