package reportRepo

import (
	"context"
	"time"

	"camionback/database"
	"camionback/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepository stores disputes raised on requests.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	// List returns reports with status, or all of them when status is empty.
	List(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
	Update(ctx context.Context, report *models.Report) error
}

type MongoReportRepo struct {
	coll *mongo.Collection
}

func NewMongoReportRepo() ReportRepository {
	repo := &MongoReportRepo{coll: database.Collection("reports")}
	database.EnsureIndexes(repo.coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return repo
}

func (r *MongoReportRepo) Create(ctx context.Context, report *models.Report) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	report.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, report)
	return database.InsertErr(err, "report")
}

func (r *MongoReportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return database.FindOne[models.Report](ctx, r.coll, bson.M{"id": id}, "report")
}

func (r *MongoReportRepo) List(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return database.FindAll[models.Report](ctx, r.coll, filter, database.NewestFirst(0))
}

func (r *MongoReportRepo) Update(ctx context.Context, report *models.Report) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": report.ID}, report)
	return database.MatchedErr(res, err, "report")
}
