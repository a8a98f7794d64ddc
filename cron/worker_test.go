package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"camionback/database/repository/memory"
	"camionback/models"
	"camionback/services/notification"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls int
	err   error
}

func (e *countingExpirer) ExpireEmptyReturns(context.Context) (int64, error) {
	e.calls++
	return 2, e.err
}

func TestMuxRoutesTasks(t *testing.T) {
	repos := memory.NewRepos()
	logger := zap.NewNop()
	ctx := context.Background()
	require.NoError(t, repos.Users.Create(ctx, &models.User{
		ID: "u1", PhoneNumber: "0600000001", Role: models.RoleClient, AccountStatus: models.AccountActive,
	}))
	d := notification.NewDispatcher(repos, notification.LogPusher{Logger: logger},
		notification.LogSMSSender{Logger: logger}, notification.LogMailer{Logger: logger}, "", logger)
	expirer := &countingExpirer{}
	mux := NewMux(d, expirer, logger)

	task, err := notification.NewBroadcastTask(notification.Broadcast{
		Audience: notification.AudienceClients,
		Inbox:    true,
		Event:    notification.Event{Kind: notification.KindAnnouncement, Title: "Info", Body: "Hello"},
	})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, task))

	inbox, err := repos.Notifications.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)

	require.NoError(t, mux.ProcessTask(ctx, asynq.NewTask(TypeEmptyReturnExpire, nil)))
	assert.Equal(t, 1, expirer.calls)

	expirer.err = errors.New("db down")
	assert.Error(t, mux.ProcessTask(ctx, asynq.NewTask(TypeEmptyReturnExpire, nil)))
}

func TestMalformedPayloadIsNotRetried(t *testing.T) {
	logger := zap.NewNop()
	repos := memory.NewRepos()
	d := notification.NewDispatcher(repos, notification.LogPusher{Logger: logger},
		notification.LogSMSSender{Logger: logger}, notification.LogMailer{Logger: logger}, "", logger)
	mux := NewMux(d, &countingExpirer{}, logger)

	err := mux.ProcessTask(context.Background(), asynq.NewTask(notification.TypeDispatch, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	payload, _ := json.Marshal(notification.Event{Kind: notification.KindAnnouncement})
	assert.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(notification.TypeDispatch, payload)))
}

type failingPusher struct{ calls int }

func (p *failingPusher) Push(context.Context, string, string, string, map[string]string) error {
	p.calls++
	return errors.New("fcm unavailable")
}

type countingSMS struct{ sent int }

func (s *countingSMS) Send(context.Context, string, string) error {
	s.sent++
	return nil
}

func TestPartialDispatchIsNotRetried(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	repos := memory.NewRepos()
	require.NoError(t, repos.Users.Create(ctx, &models.User{
		ID: "u1", PhoneNumber: "0600000001", DeviceToken: "tok-1", Role: models.RoleClient, AccountStatus: models.AccountActive,
	}))
	push := &failingPusher{}
	sms := &countingSMS{}
	d := notification.NewDispatcher(repos, push, sms, notification.LogMailer{Logger: logger}, "", logger)
	mux := NewMux(d, &countingExpirer{}, logger)

	task, err := notification.NewDispatchTask(notification.Event{
		Kind: notification.KindOfferAccepted, RecipientID: "u1", Title: "Offre", Body: "Offre acceptée", SMS: true,
	})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, task))

	assert.Equal(t, 1, push.calls)
	assert.Equal(t, 1, sms.sent)
	history, err := repos.Audit.ListSms(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDispatchRetriesOnlyWhenNothingWentOut(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	repos := memory.NewRepos()
	require.NoError(t, repos.Users.Create(ctx, &models.User{
		ID: "u1", PhoneNumber: "0600000001", DeviceToken: "tok-1", Role: models.RoleClient, AccountStatus: models.AccountActive,
	}))
	d := notification.NewDispatcher(repos, &failingPusher{}, &countingSMS{}, notification.LogMailer{Logger: logger}, "", logger)
	mux := NewMux(d, &countingExpirer{}, logger)

	task, err := notification.NewDispatchTask(notification.Event{Kind: notification.KindNewOffer, RecipientID: "u1", Title: "t", Body: "b"})
	require.NoError(t, err)
	err = mux.ProcessTask(ctx, task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	task, err = notification.NewDispatchTask(notification.Event{Kind: notification.KindNewOffer, RecipientID: "ghost", Title: "t", Body: "b"})
	require.NoError(t, err)
	err = mux.ProcessTask(ctx, task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
