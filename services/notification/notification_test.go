package notification

import (
	"context"
	"errors"
	"mime"
	"strings"
	"sync"
	"testing"
	"time"

	"camionback/database/repository/memory"
	"camionback/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recorder) record(v string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, v)
	return r.err
}

func (r *recorder) Push(_ context.Context, token, _, _ string, _ map[string]string) error {
	return r.record(token)
}

func (r *recorder) Send(_ context.Context, to, _ string) error { return r.record(to) }

type mailRecorder struct{ recorder }

func (m *mailRecorder) Send(_ context.Context, to, _, _ string) error { return m.record(to) }

func seedUser(t *testing.T, users interface {
	Create(context.Context, *models.User) error
}, id, phone, token string, role models.Role) {
	t.Helper()
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID: id, PhoneNumber: phone, Role: role, DeviceToken: token, AccountStatus: models.AccountActive,
	}))
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]string{
		"0612345678":     "+212612345678",
		"06 12 34 56 78": "+212612345678",
		"+33612345678":   "+33612345678",
		"0033612345678":  "+33612345678",
		"212612345678":   "+212612345678",
		"612345678":      "+212612345678",
		"":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPhone(in, "212"), in)
	}
}

func TestDispatchFailingChannelDoesNotStopOthers(t *testing.T) {
	repos := memory.NewRepos()
	seedUser(t, repos.Users, "u1", "0600000001", "tok-1", models.RoleClient)

	push := &recorder{err: errors.New("fcm down")}
	sms := &recorder{}
	mail := &mailRecorder{}
	d := NewDispatcher(repos, push, sms, mail, "ops@camionback.ma", zap.NewNop())

	delivered, err := d.Dispatch(context.Background(), Event{
		Kind: KindOfferAccepted, RecipientID: "u1", Title: "t", Body: "b", SMS: true, EmailAdmin: true,
	})
	require.Error(t, err)
	assert.Equal(t, 2, delivered)
	assert.Contains(t, err.Error(), "fcm down")
	assert.Equal(t, []string{"tok-1"}, push.calls)
	assert.Equal(t, []string{"0600000001"}, sms.calls)
	assert.Equal(t, []string{"ops@camionback.ma"}, mail.calls)

	history, err := repos.Audit.ListSms(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].RecipientCount)
}

func TestNotifySwallowsDeliveryErrors(t *testing.T) {
	repos := memory.NewRepos()
	seedUser(t, repos.Users, "u1", "0600000001", "tok-1", models.RoleTransporter)

	push := &recorder{err: errors.New("boom")}
	d := NewDispatcher(repos, push, &recorder{}, &mailRecorder{}, "", zap.NewNop())
	n := NewNotifier(repos.Notifications, NewInlineQueue(d), zap.NewNop())

	n.Notify(context.Background(), Event{Kind: KindNewOffer, RecipientID: "u1", Title: "Offre", Body: "Nouvelle offre", RequestID: "r1"})

	inbox, err := repos.Notifications.ListByUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "new_offer", inbox[0].Type)
	assert.Equal(t, "r1", inbox[0].RelatedRequestID)
	assert.False(t, inbox[0].Read)
	assert.Len(t, push.calls, 1)
}

func TestBroadcastTargetsAudience(t *testing.T) {
	repos := memory.NewRepos()
	seedUser(t, repos.Users, "c1", "0600000001", "", models.RoleClient)
	seedUser(t, repos.Users, "t1", "0600000002", "", models.RoleTransporter)
	seedUser(t, repos.Users, "t2", "0600000003", "", models.RoleTransporter)

	sms := &recorder{}
	d := NewDispatcher(repos, &recorder{}, sms, &mailRecorder{}, "", zap.NewNop())

	sent, err := d.Broadcast(context.Background(), Broadcast{
		Audience: AudienceTransporters,
		SenderID: "admin",
		Event:    Event{Kind: KindAnnouncement, Body: "Hello", SMS: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{"0600000002", "0600000003"}, sms.calls)

	history, err := repos.Audit.ListSms(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "transporters", history[0].TargetAudience)
	assert.Equal(t, 2, history[0].RecipientCount)
}

func TestInboxMarkRead(t *testing.T) {
	repos := memory.NewRepos()
	ctx := context.Background()
	n := NewLocalNotifier(repos, zap.NewNop())
	n.Notify(ctx,
		Event{Kind: KindNewOffer, RecipientID: "u1", Title: "a"},
		Event{Kind: KindNewOffer, RecipientID: "u1", Title: "b"},
		Event{Kind: KindNewOffer, RecipientID: "u2", Title: "c"},
	)

	inbox := NewInbox(repos.Notifications)
	rows, err := inbox.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	unread, err := inbox.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	assert.Error(t, inbox.MarkRead(ctx, "u2", rows[0].ID))
	require.NoError(t, inbox.MarkRead(ctx, "u1", rows[0].ID))

	changed, err := inbox.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	unread, err = inbox.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

type gatedPusher struct {
	recorder
	release chan struct{}
}

func (g *gatedPusher) Push(ctx context.Context, token, _, _ string, _ map[string]string) error {
	<-g.release
	return g.record(token)
}

func TestAsyncQueueDoesNotBlockCaller(t *testing.T) {
	repos := memory.NewRepos()
	seedUser(t, repos.Users, "u1", "0600000001", "tok-1", models.RoleClient)
	push := &gatedPusher{release: make(chan struct{})}
	d := NewDispatcher(repos, push, &recorder{}, &mailRecorder{}, "", zap.NewNop())
	q := NewAsyncQueue(d, 1, 1, zap.NewNop())

	returned := make(chan error, 1)
	go func() {
		returned <- q.Enqueue(context.Background(), Event{Kind: KindNewOffer, RecipientID: "u1", Title: "t"})
	}()
	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Enqueue waited on the push provider")
	}

	close(push.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
	assert.Equal(t, []string{"tok-1"}, push.calls)
}

func TestAsyncQueueRejectsWhenFull(t *testing.T) {
	repos := memory.NewRepos()
	seedUser(t, repos.Users, "u1", "0600000001", "tok-1", models.RoleClient)
	push := &gatedPusher{release: make(chan struct{})}
	d := NewDispatcher(repos, push, &recorder{}, &mailRecorder{}, "", zap.NewNop())
	q := NewAsyncQueue(d, 1, 1, zap.NewNop())
	ev := Event{Kind: KindNewOffer, RecipientID: "u1", Title: "t"}

	// One job runs, one waits in the buffer, the rest are refused.
	var full int
	for i := 0; i < 5; i++ {
		if err := q.Enqueue(context.Background(), ev); errors.Is(err, ErrQueueFull) {
			full++
		}
	}
	assert.GreaterOrEqual(t, full, 3)

	close(push.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
	assert.LessOrEqual(t, len(push.calls), 2)
}

func TestBuildMessageEncodesSubject(t *testing.T) {
	raw := string(buildMessage("noreply@camionback.ma", "ops@camionback.ma", "Réclamation déposée", "Corps du message"))

	assert.Contains(t, raw, "Subject: =?utf-8?q?R=C3=A9clamation_d=C3=A9pos=C3=A9e?=\r\n")
	assert.NotContains(t, raw, "Subject: Réclamation")
	assert.Contains(t, raw, "\r\n\r\nCorps du message")

	dec := new(mime.WordDecoder)
	subject := strings.TrimSuffix(strings.SplitN(strings.SplitN(raw, "Subject: ", 2)[1], "\r\n", 2)[0], "\r\n")
	got, err := dec.DecodeHeader(subject)
	require.NoError(t, err)
	assert.Equal(t, "Réclamation déposée", got)

	plain := string(buildMessage("a@b.c", "d@e.f", "Nouvelle demande", "x"))
	assert.Contains(t, plain, "Subject: Nouvelle demande\r\n")

	injected := string(buildMessage("a@b.c", "d@e.f", "hi\r\nBcc: evil@x.y", "x"))
	assert.NotContains(t, injected, "\r\nBcc:")
}
