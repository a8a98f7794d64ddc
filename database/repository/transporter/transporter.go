package transporterRepo

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

// TransporterRepository stores the transporter side records: declared empty
// returns and vetting references.
type TransporterRepository interface {
	CreateEmptyReturn(ctx context.Context, er *models.EmptyReturn) error
	GetEmptyReturn(ctx context.Context, id string) (*models.EmptyReturn, error)
	// ListEmptyReturns filters by transporter when transporterID is set.
	ListEmptyReturns(ctx context.Context, transporterID string, activeOnly bool) ([]models.EmptyReturn, error)
	UpdateEmptyReturn(ctx context.Context, er *models.EmptyReturn) error
	// ExpireEmptyReturns deactivates active returns dated before cutoff.
	ExpireEmptyReturns(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteEmptyReturnsByTransporter(ctx context.Context, transporterID string) error

	CreateReference(ctx context.Context, ref *models.TransporterReference) error
	GetReference(ctx context.Context, id string) (*models.TransporterReference, error)
	ListReferences(ctx context.Context, transporterID string, status models.ReferenceStatus) ([]models.TransporterReference, error)
	UpdateReference(ctx context.Context, ref *models.TransporterReference) error
	DeleteReferencesByTransporter(ctx context.Context, transporterID string) error
}

type MongoTransporterRepo struct {
	returns    *mongo.Collection
	references *mongo.Collection
}

func NewMongoTransporterRepo() TransporterRepository {
	repo := &MongoTransporterRepo{
		returns:    database.Collection("empty_returns"),
		references: database.Collection("transporter_references"),
	}
	database.EnsureIndexes(repo.returns, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "returnDate", Value: 1}}},
		{Keys: bson.D{{Key: "transporterId", Value: 1}}},
	})
	database.EnsureIndexes(repo.references, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "transporterId", Value: 1}}},
	})
	return repo
}

func (r *MongoTransporterRepo) CreateEmptyReturn(ctx context.Context, er *models.EmptyReturn) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	er.CreatedAt = time.Now()
	_, err := r.returns.InsertOne(ctx, er)
	return database.InsertErr(err, "empty return")
}

func (r *MongoTransporterRepo) GetEmptyReturn(ctx context.Context, id string) (*models.EmptyReturn, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.EmptyReturn](ctx, r.returns, bson.M{"id": id}, "empty return")
}

func (r *MongoTransporterRepo) ListEmptyReturns(ctx context.Context, transporterID string, activeOnly bool) ([]models.EmptyReturn, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if transporterID != "" {
		filter["transporterId"] = transporterID
	}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "returnDate", Value: 1}})
	return database.FindAll[models.EmptyReturn](ctx, r.returns, filter, opts)
}

func (r *MongoTransporterRepo) UpdateEmptyReturn(ctx context.Context, er *models.EmptyReturn) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.returns.ReplaceOne(ctx, bson.M{"id": er.ID}, er)
	return database.MatchedErr(res, err, "empty return")
}

func (r *MongoTransporterRepo) ExpireEmptyReturns(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := r.returns.UpdateMany(ctx,
		bson.M{"isActive": true, "returnDate": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return 0, fmt.Errorf("failed to expire empty returns: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoTransporterRepo) DeleteEmptyReturnsByTransporter(ctx context.Context, transporterID string) error {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.returns.DeleteMany(ctx, bson.M{"transporterId": transporterID}); err != nil {
		return fmt.Errorf("failed to delete empty returns of %s: %w", transporterID, err)
	}
	return nil
}

func (r *MongoTransporterRepo) CreateReference(ctx context.Context, ref *models.TransporterReference) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	ref.CreatedAt = now
	ref.UpdatedAt = now
	_, err := r.references.InsertOne(ctx, ref)
	return database.InsertErr(err, "reference")
}

func (r *MongoTransporterRepo) GetReference(ctx context.Context, id string) (*models.TransporterReference, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.TransporterReference](ctx, r.references, bson.M{"id": id}, "reference")
}

func (r *MongoTransporterRepo) ListReferences(ctx context.Context, transporterID string, status models.ReferenceStatus) ([]models.TransporterReference, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if transporterID != "" {
		filter["transporterId"] = transporterID
	}
	if status != "" {
		filter["status"] = status
	}
	return database.FindAll[models.TransporterReference](ctx, r.references, filter, database.NewestFirst(0))
}

func (r *MongoTransporterRepo) UpdateReference(ctx context.Context, ref *models.TransporterReference) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ref.UpdatedAt = time.Now()
	res, err := r.references.ReplaceOne(ctx, bson.M{"id": ref.ID}, ref)
	return database.MatchedErr(res, err, "reference")
}

func (r *MongoTransporterRepo) DeleteReferencesByTransporter(ctx context.Context, transporterID string) error {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.references.DeleteMany(ctx, bson.M{"transporterId": transporterID}); err != nil {
		return fmt.Errorf("failed to delete references of %s: %w", transporterID, err)
	}
	return nil
}
