package offerRepo

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

// MongoContractRepo implements ContractRepository using MongoDB.
type MongoContractRepo struct {
	coll *mongo.Collection
}

func NewMongoContractRepo() ContractRepository {
	repo := &MongoContractRepo{coll: database.Collection("contracts")}
	database.EnsureIndexes(repo.coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "requestId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "clientId", Value: 1}}},
		{Keys: bson.D{{Key: "transporterId", Value: 1}}},
	})
	return repo
}

func (r *MongoContractRepo) Create(ctx context.Context, contract *models.Contract) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	contract.CreatedAt = now
	contract.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, contract)
	return database.InsertErr(err, "contract")
}

func (r *MongoContractRepo) GetByID(ctx context.Context, id string) (*models.Contract, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.Contract](ctx, r.coll, bson.M{"id": id}, "contract")
}

func (r *MongoContractRepo) GetByRequest(ctx context.Context, requestID string) (*models.Contract, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.Contract](ctx, r.coll, bson.M{"requestId": requestID}, "contract")
}

func (r *MongoContractRepo) List(ctx context.Context, clientID, transporterID string) ([]models.Contract, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if clientID != "" {
		filter["clientId"] = clientID
	}
	if transporterID != "" {
		filter["transporterId"] = transporterID
	}
	return database.FindAll[models.Contract](ctx, r.coll, filter, database.NewestFirst(0))
}

func (r *MongoContractRepo) Update(ctx context.Context, contract *models.Contract) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	contract.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": contract.ID}, contract)
	return database.MatchedErr(res, err, "contract")
}

func (r *MongoContractRepo) DeleteByRequest(ctx context.Context, requestID string) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{"requestId": requestID}); err != nil {
		return fmt.Errorf("failed to delete contract of request %s: %w", requestID, err)
	}
	return nil
}
