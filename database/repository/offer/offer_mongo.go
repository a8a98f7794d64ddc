package offerRepo

import (
	"context"
	"fmt"
	"time"

	"camionback/apperr"
	"camionback/database"
	"camionback/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOfferRepo implements OfferRepository using MongoDB.
type MongoOfferRepo struct {
	coll *mongo.Collection
}

func NewMongoOfferRepo() OfferRepository {
	repo := &MongoOfferRepo{coll: database.Collection("offers")}
	database.EnsureIndexes(repo.coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "transporterId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "transporterId", Value: 1}}},
	})
	return repo
}

func (r *MongoOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, offer)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("You already submitted an offer for this request")
	}
	return database.InsertErr(err, "offer")
}

func (r *MongoOfferRepo) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.Offer](ctx, r.coll, bson.M{"id": id}, "offer")
}

func (r *MongoOfferRepo) FindByRequestAndTransporter(ctx context.Context, requestID, transporterID string) (*models.Offer, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.Offer](ctx, r.coll, bson.M{"requestId": requestID, "transporterId": transporterID}, "offer")
}

func (r *MongoOfferRepo) ListByRequest(ctx context.Context, requestID string) ([]models.Offer, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.Offer](ctx, r.coll, bson.M{"requestId": requestID}, database.NewestFirst(0))
}

func (r *MongoOfferRepo) ListByTransporter(ctx context.Context, transporterID string) ([]models.Offer, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.Offer](ctx, r.coll, bson.M{"transporterId": transporterID}, database.NewestFirst(0))
}

func (r *MongoOfferRepo) UpdateStatus(ctx context.Context, id string, status models.OfferStatus) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
	return database.MatchedErr(res, err, "offer")
}

func (r *MongoOfferRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	return database.DeletedErr(res, err, "offer")
}

func (r *MongoOfferRepo) DeleteByRequest(ctx context.Context, requestID, keepID string) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"requestId": requestID}
	if keepID != "" {
		filter["id"] = bson.M{"$ne": keepID}
	}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete offers of request %s: %w", requestID, err)
	}
	return res.DeletedCount, nil
}

func (r *MongoOfferRepo) DeleteByTransporter(ctx context.Context, transporterID string) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"transporterId": transporterID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete offers of transporter %s: %w", transporterID, err)
	}
	return res.DeletedCount, nil
}

func (r *MongoOfferRepo) CountByRequest(ctx context.Context, requestID string) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"requestId": requestID})
	if err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return n, nil
}
