package auditRepo

import (
	"context"
	"time"

	"camionback/database"
	"camionback/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LogFilter narrows the coordinator audit trail.
type LogFilter struct {
	CoordinatorID string
	TargetID      string
	Limit         int64
}

// AuditRepository stores append-only staff records: the coordinator log,
// internal request notes and SMS history.
type AuditRepository interface {
	AddLog(ctx context.Context, entry *models.CoordinatorLog) error
	ListLogs(ctx context.Context, filter LogFilter) ([]models.CoordinatorLog, error)
	AddNote(ctx context.Context, note *models.RequestNote) error
	ListNotes(ctx context.Context, requestID string) ([]models.RequestNote, error)
	AddSms(ctx context.Context, entry *models.SmsHistory) error
	ListSms(ctx context.Context, limit int64) ([]models.SmsHistory, error)
}

type MongoAuditRepo struct {
	logs  *mongo.Collection
	notes *mongo.Collection
	sms   *mongo.Collection
}

func NewMongoAuditRepo() AuditRepository {
	repo := &MongoAuditRepo{
		logs:  database.Collection("coordinator_logs"),
		notes: database.Collection("request_notes"),
		sms:   database.Collection("sms_history"),
	}
	database.EnsureIndexes(repo.logs, []mongo.IndexModel{
		{Keys: bson.D{{Key: "coordinatorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "targetId", Value: 1}}},
	})
	database.EnsureIndexes(repo.notes, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return repo
}

func (r *MongoAuditRepo) AddLog(ctx context.Context, entry *models.CoordinatorLog) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry.CreatedAt = time.Now()
	_, err := r.logs.InsertOne(ctx, entry)
	return database.InsertErr(err, "coordinator log")
}

func (r *MongoAuditRepo) ListLogs(ctx context.Context, filter LogFilter) ([]models.CoordinatorLog, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := bson.M{}
	if filter.CoordinatorID != "" {
		q["coordinatorId"] = filter.CoordinatorID
	}
	if filter.TargetID != "" {
		q["targetId"] = filter.TargetID
	}
	return database.FindAll[models.CoordinatorLog](ctx, r.logs, q, database.NewestFirst(filter.Limit))
}

func (r *MongoAuditRepo) AddNote(ctx context.Context, note *models.RequestNote) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	note.CreatedAt = time.Now()
	_, err := r.notes.InsertOne(ctx, note)
	return database.InsertErr(err, "note")
}

func (r *MongoAuditRepo) ListNotes(ctx context.Context, requestID string) ([]models.RequestNote, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.RequestNote](ctx, r.notes, bson.M{"requestId": requestID}, database.NewestFirst(0))
}

func (r *MongoAuditRepo) AddSms(ctx context.Context, entry *models.SmsHistory) error {
	ctx, cancel := database.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry.CreatedAt = time.Now()
	_, err := r.sms.InsertOne(ctx, entry)
	return database.InsertErr(err, "sms history")
}

func (r *MongoAuditRepo) ListSms(ctx context.Context, limit int64) ([]models.SmsHistory, error) {
	ctx, cancel := database.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.FindAll[models.SmsHistory](ctx, r.sms, bson.M{}, database.NewestFirst(limit))
}
