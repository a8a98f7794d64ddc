// Package counterRepo hands out monotonically increasing sequence numbers.
package counterRepo

import (
	"context"
	"fmt"
	"time"

	"camionback/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequence returns the next value of a named counter. Values start at 1 and
// are never handed out twice, even under concurrent callers.
type Sequence interface {
	Next(ctx context.Context, name string) (int64, error)
}

type MongoSequence struct {
	coll *mongo.Collection
}

func NewMongoSequence() Sequence {
	return &MongoSequence{coll: database.Collection("counters")}
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func (s *MongoSequence) Next(ctx context.Context, name string) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc counterDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", name, err)
	}
	return doc.Seq, nil
}
