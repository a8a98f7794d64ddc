package notification

import (
	"context"

	"camionback/database/repository"
	"camionback/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is what services publish to. The inbox row is written before the
// event is queued so the in-app list is never behind a slow channel.
type Notifier struct {
	inbox  repository.NotificationRepository
	queue  Queue
	logger *zap.Logger
}

func NewNotifier(inbox repository.NotificationRepository, queue Queue, logger *zap.Logger) *Notifier {
	return &Notifier{inbox: inbox, queue: queue, logger: logger}
}

// Notify never fails: every error is logged and dropped.
func (n *Notifier) Notify(ctx context.Context, events ...Event) {
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		if ev.RecipientID != "" {
			row := &models.Notification{
				ID:               ev.ID,
				UserID:           ev.RecipientID,
				Type:             string(ev.Kind),
				Title:            ev.Title,
				Message:          ev.Body,
				RelatedRequestID: ev.RequestID,
				RelatedOfferID:   ev.OfferID,
			}
			if err := n.inbox.Create(ctx, row); err != nil {
				n.logger.Error("failed to store notification",
					zap.String("kind", string(ev.Kind)),
					zap.String("userId", ev.RecipientID),
					zap.Error(err))
			}
		}
		if err := n.queue.Enqueue(ctx, ev); err != nil {
			n.logger.Error("failed to deliver notification",
				zap.String("kind", string(ev.Kind)),
				zap.String("recipientId", ev.RecipientID),
				zap.Error(err))
		}
	}
}

// Broadcast queues a fan-out. Unlike Notify, the caller learns whether the
// broadcast was accepted.
func (n *Notifier) Broadcast(ctx context.Context, b Broadcast) error {
	if b.Event.ID == "" {
		b.Event.ID = uuid.New().String()
	}
	if err := n.queue.EnqueueBroadcast(ctx, b); err != nil {
		n.logger.Error("failed to queue broadcast", zap.String("audience", string(b.Audience)), zap.Error(err))
		return err
	}
	return nil
}

// NewLocalNotifier delivers inline and only logs push, SMS and mail. It backs
// development runs without Redis or provider credentials.
func NewLocalNotifier(repos repository.Repos, logger *zap.Logger) *Notifier {
	d := NewDispatcher(repos, LogPusher{Logger: logger}, LogSMSSender{Logger: logger}, LogMailer{Logger: logger}, "", logger)
	return NewNotifier(repos.Notifications, NewInlineQueue(d), logger)
}
