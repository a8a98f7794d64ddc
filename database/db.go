package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"camionback/apperr"
	"camionback/config"
	"camionback/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// InitDB initializes the MongoDB connection.
func InitDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	MongoClient = client
	utils.GetLogger().Info("Connected to MongoDB successfully", zap.String("database", config.AppConfig.DatabaseName))
	return nil
}

// CloseDB disconnects the global client if one was opened.
func CloseDB(ctx context.Context) error {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Disconnect(ctx)
}

// Collection returns a handle on name in the configured database.
func Collection(name string) *mongo.Collection {
	return MongoClient.Database(config.AppConfig.DatabaseName).Collection(name)
}

// WithTimeout bounds a single database round trip.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

// FindOne decodes the single document matching filter. A missing document is
// reported as apperr.ErrNotFound with what in the message.
func FindOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, what string) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound(what + " not found")
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return &out, nil
}

// FindAll decodes every document matching filter.
func FindAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
		}
		out = append(out, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", coll.Name(), err)
	}
	return out, nil
}

// NewestFirst sorts by creation date, descending, with an optional limit.
func NewestFirst(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

// InsertErr converts a duplicate key error into a conflict.
func InsertErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(what + " already exists")
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}

// MatchedErr reports a missing document when an update matched nothing.
func MatchedErr(res *mongo.UpdateResult, err error, what string) error {
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict(what + " already exists")
		}
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(what + " not found")
	}
	return nil
}

// DeletedErr reports a missing document when a delete removed nothing.
func DeletedErr(res *mongo.DeleteResult, err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(what + " not found")
	}
	return nil
}

// EnsureIndexes creates models on coll and logs rather than fails.
func EnsureIndexes(coll *mongo.Collection, models []mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		utils.GetLogger().Warn("failed to create indexes", zap.String("collection", coll.Name()), zap.Error(err))
	}
}
