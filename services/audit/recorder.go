// Package audit writes the staff activity trail.
package audit

import (
	"context"

	"camionback/database/repository"
	"camionback/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Target types recorded in the log.
const (
	TargetRequest     = "request"
	TargetUser        = "user"
	TargetOffer       = "offer"
	TargetPayment     = "payment"
	TargetReference   = "reference"
	TargetSettings    = "settings"
	TargetReport      = "report"
	TargetCatalog     = "catalog"
	TargetEmptyReturn = "empty_return"
)

// Recorder appends CoordinatorLog rows. A failed write is logged, never
// returned, so auditing cannot block the action it records.
type Recorder struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

func NewRecorder(repo repository.AuditRepository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, actorID, action, targetType, targetID string, details map[string]string) {
	entry := &models.CoordinatorLog{
		ID:            uuid.New().String(),
		CoordinatorID: actorID,
		Action:        action,
		TargetType:    targetType,
		TargetID:      targetID,
		Details:       details,
	}
	if err := r.repo.AddLog(ctx, entry); err != nil {
		r.logger.Error("failed to write coordinator log",
			zap.String("action", action),
			zap.String("targetId", targetID),
			zap.Error(err))
	}
}

func (r *Recorder) List(ctx context.Context, filter repository.LogFilter) ([]models.CoordinatorLog, error) {
	return r.repo.ListLogs(ctx, filter)
}
