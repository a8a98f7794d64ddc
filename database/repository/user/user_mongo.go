package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"camionback/apperr"
	"camionback/database"
	"camionback/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo() UserRepository {
	repo := &MongoUserRepo{coll: database.Collection("users")}
	database.EnsureIndexes(repo.coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phoneNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "clientId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}}},
	})
	return repo
}

func userQuery(f models.UserFilter) bson.M {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.AccountStatus != "" {
		q["accountStatus"] = f.AccountStatus
	}
	return q
}

func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("Phone number already registered")
	}
	return database.InsertErr(err, "user")
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.User](ctx, r.coll, bson.M{"id": id}, "user")
}

func (r *MongoUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.User](ctx, r.coll, bson.M{"phoneNumber": phone}, "user")
}

func (r *MongoUserRepo) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.User](ctx, r.coll, bson.M{"id": bson.M{"$in": ids}})
}

func (r *MongoUserRepo) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": user.ID}, user)
	return database.MatchedErr(res, err, "user")
}

func (r *MongoUserRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	return database.DeletedErr(res, err, "user")
}

func (r *MongoUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.User](ctx, r.coll, userQuery(filter), database.NewestFirst(0))
}

func (r *MongoUserRepo) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, userQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ApplyRating uses an update pipeline so the average is computed from the
// stored values, not from a stale read.
func (r *MongoUserRepo) ApplyRating(ctx context.Context, id string, score int) (*models.User, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"rating": bson.M{"$divide": bson.A{
				bson.M{"$add": bson.A{
					bson.M{"$multiply": bson.A{bson.M{"$ifNull": bson.A{"$rating", 0}}, bson.M{"$ifNull": bson.A{"$totalRatings", 0}}}},
					score,
				}},
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$totalRatings", 0}}, 1}},
			}},
			"totalRatings": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$totalRatings", 0}}, 1}},
			"totalTrips":   bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$totalTrips", 0}}, 1}},
			"updatedAt":    time.Now(),
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, pipeline, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to apply rating to user %s: %w", id, err)
	}
	return &user, nil
}
