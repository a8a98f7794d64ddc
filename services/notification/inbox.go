package notification

import (
	"context"

	"camionback/database/repository"
	"camionback/models"
)

const defaultInboxLimit = 50

// Inbox reads and acknowledges a user's in-app notifications.
type Inbox struct {
	repo repository.NotificationRepository
}

func NewInbox(repo repository.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

func (i *Inbox) List(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultInboxLimit
	}
	return i.repo.ListByUser(ctx, userID, limit)
}

func (i *Inbox) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return i.repo.CountUnread(ctx, userID)
}

// MarkRead only touches rows owned by userID.
func (i *Inbox) MarkRead(ctx context.Context, userID, id string) error {
	return i.repo.MarkRead(ctx, userID, id)
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return i.repo.MarkAllRead(ctx, userID)
}
