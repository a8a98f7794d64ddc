package requestRepo

import (
	"context"
	"fmt"
	"time"

	"camionback/apperr"
	"camionback/database"
	"camionback/models"
	"camionback/services/workflow"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRequestRepo implements RequestRepository using MongoDB.
type MongoRequestRepo struct {
	coll *mongo.Collection
}

func NewMongoRequestRepo() RequestRepository {
	repo := &MongoRequestRepo{coll: database.Collection("transport_requests")}
	database.EnsureIndexes(repo.coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referenceId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "coordinationStatus", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTransporterId", Value: 1}}},
		{Keys: bson.D{{Key: "paymentStatus", Value: 1}}},
	})
	return repo
}

func requestQuery(f models.RequestFilter) bson.M {
	q := bson.M{}
	if f.ClientID != "" {
		q["clientId"] = f.ClientID
	}
	if f.AssignedTransporterID != "" {
		q["assignedTransporterId"] = f.AssignedTransporterID
	}
	if f.AssignedToID != "" {
		q["assignedToId"] = f.AssignedToID
	}
	if len(f.Statuses) > 0 {
		q["status"] = bson.M{"$in": f.Statuses}
	}
	if len(f.CoordinationStatuses) > 0 {
		q["coordinationStatus"] = bson.M{"$in": f.CoordinationStatuses}
	}
	if len(f.PaymentStatuses) > 0 {
		q["paymentStatus"] = bson.M{"$in": f.PaymentStatuses}
	}
	if f.FromCity != "" {
		q["fromCity"] = f.FromCity
	}
	if f.ToCity != "" {
		q["toCity"] = f.ToCity
	}
	if f.InterestedTransporter != "" {
		q["transporterInterests"] = f.InterestedTransporter
	}
	return q
}

func (r *MongoRequestRepo) Create(ctx context.Context, req *models.TransportRequest) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.TransporterInterests == nil {
		req.TransporterInterests = []string{}
	}
	_, err := r.coll.InsertOne(ctx, req)
	return database.InsertErr(err, "request")
}

func (r *MongoRequestRepo) GetByID(ctx context.Context, id string) (*models.TransportRequest, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.TransportRequest](ctx, r.coll, bson.M{"id": id}, "request")
}

func (r *MongoRequestRepo) Update(ctx context.Context, req *models.TransportRequest) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req.UpdatedAt = time.Now()
	req.Version++
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": req.ID}, req)
	if err != nil || res.MatchedCount == 0 {
		req.Version--
	}
	return database.MatchedErr(res, err, "request")
}

// versionFilter matches v. Rows written before versioning carry no field and
// count as version 0.
func versionFilter(v int64) interface{} {
	if v == 0 {
		return bson.M{"$in": bson.A{0, nil}}
	}
	return v
}

func (r *MongoRequestRepo) UpdateGuarded(ctx context.Context, req *models.TransportRequest, expect workflow.State) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":                 req.ID,
		"status":             expect.Status,
		"coordinationStatus": expect.Coordination,
		"version":            versionFilter(req.Version),
	}
	req.UpdatedAt = time.Now()
	req.Version++
	res, err := r.coll.ReplaceOne(ctx, filter, req)
	if err != nil {
		req.Version--
		return fmt.Errorf("failed to update request %s: %w", req.ID, err)
	}
	if res.MatchedCount == 0 {
		req.Version--
		return apperr.Conflict("Request was modified concurrently")
	}
	return nil
}

func (r *MongoRequestRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	return database.DeletedErr(res, err, "request")
}

func (r *MongoRequestRepo) List(ctx context.Context, filter models.RequestFilter) ([]models.TransportRequest, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.TransportRequest](ctx, r.coll, requestQuery(filter), database.NewestFirst(filter.Limit))
}

func (r *MongoRequestRepo) Count(ctx context.Context, filter models.RequestFilter) (int64, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, requestQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}

func (r *MongoRequestRepo) AddInterest(ctx context.Context, id, transporterID string) (bool, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "transporterInterests": bson.M{"$ne": transporterID}}
	res, err := r.coll.UpdateOne(ctx, filter,
		bson.M{
			"$push": bson.M{"transporterInterests": transporterID},
			"$set":  bson.M{"updatedAt": time.Now()},
			"$inc":  bson.M{"version": 1},
		})
	if err != nil {
		return false, fmt.Errorf("failed to add interest on request %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	// Either already interested or the request is gone.
	if _, err := database.FindOne[models.TransportRequest](ctx, r.coll, bson.M{"id": id}, "request"); err != nil {
		return false, err
	}
	return false, nil
}

func (r *MongoRequestRepo) RemoveInterest(ctx context.Context, id, transporterID string) (bool, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "transporterInterests": transporterID},
		bson.M{
			"$pull": bson.M{"transporterInterests": transporterID},
			"$set":  bson.M{"updatedAt": time.Now()},
			"$inc":  bson.M{"version": 1},
		})
	if err != nil {
		return false, fmt.Errorf("failed to remove interest on request %s: %w", id, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoRequestRepo) StatusPairs(ctx context.Context) ([]models.StatusPair, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"status": "$status", "coordinationStatus": "$coordinationStatus"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                0,
			"status":             "$_id.status",
			"coordinationStatus": "$_id.coordinationStatus",
			"count":              1,
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate status pairs: %w", err)
	}
	defer cursor.Close(ctx)

	pairs := make([]models.StatusPair, 0)
	if err := cursor.All(ctx, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode status pairs: %w", err)
	}
	return pairs, nil
}

func (r *MongoRequestRepo) DeleteByClient(ctx context.Context, clientID string) ([]string, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	reqs, err := database.FindAll[models.TransportRequest](ctx, r.coll, bson.M{"clientId": clientID},
		options.Find().SetProjection(bson.M{"id": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.ID)
	}
	if _, err := r.coll.DeleteMany(ctx, bson.M{"clientId": clientID}); err != nil {
		return nil, fmt.Errorf("failed to delete requests of client %s: %w", clientID, err)
	}
	return ids, nil
}

func (r *MongoRequestRepo) ForgetTransporter(ctx context.Context, transporterID string) error {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.coll.UpdateMany(ctx, bson.M{"transporterInterests": transporterID},
		bson.M{"$pull": bson.M{"transporterInterests": transporterID}, "$inc": bson.M{"version": 1}})
	if err != nil {
		return fmt.Errorf("failed to remove transporter %s from interests: %w", transporterID, err)
	}
	return nil
}
