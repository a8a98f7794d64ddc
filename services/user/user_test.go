package user

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"camionback/apperr"
	"camionback/database/repository"
	"camionback/database/repository/memory"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() (*DefaultUserService, repository.Repos) {
	repos := memory.NewRepos()
	logger := zap.NewNop()
	svc := NewDefaultUserService(repos, notification.NewLocalNotifier(repos, logger), audit.NewRecorder(repos.Audit, logger), logger)
	return svc, repos
}

func register(t *testing.T, svc *DefaultUserService, phone string) *models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{PhoneNumber: phone, Password: "secret1"})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u := register(t, svc, "06 11 22 33 44")
	assert.Equal(t, "0611223344", u.PhoneNumber)
	assert.Equal(t, models.RoleNone, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err := svc.Register(ctx, RegisterInput{PhoneNumber: "0611223344", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	logged, err := svc.Login(ctx, "0611223344", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = svc.Login(ctx, "0611223344", "wrong-pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Login(ctx, "0699999999", "secret1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), RegisterInput{PhoneNumber: "0611223344", Password: "123"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBlockedUserCannotLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "0611223344")

	_, err := svc.SetBlocked(ctx, "admin-1", u.ID, true)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "0611223344", "secret1")
	assert.ErrorIs(t, err, apperr.ErrAccountBlocked)

	_, err = svc.SetBlocked(ctx, "admin-1", u.ID, false)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "0611223344", "secret1")
	assert.NoError(t, err)
}

func TestSelectRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c := register(t, svc, "0611223344")
	client, err := svc.SelectRole(ctx, c.ID, SelectRoleInput{Role: models.RoleClient, Name: "Amine", City: "Casablanca"})
	require.NoError(t, err)
	assert.Equal(t, "C-0001", client.ClientID)

	_, err = svc.SelectRole(ctx, c.ID, SelectRoleInput{Role: models.RoleTransporter, Name: "Amine", City: "Casablanca", TruckType: "plateau"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	tr := register(t, svc, "0622334455")
	_, err = svc.SelectRole(ctx, tr.ID, SelectRoleInput{Role: models.RoleTransporter, Name: "Youssef", City: "Rabat"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	transporter, err := svc.SelectRole(ctx, tr.ID, SelectRoleInput{Role: models.RoleTransporter, Name: "Youssef", City: "Rabat", TruckType: "plateau"})
	require.NoError(t, err)
	assert.Equal(t, models.TransporterPending, transporter.Status)
	assert.Empty(t, transporter.ClientID)
	assert.False(t, transporter.CanWork())

	_, err = svc.SelectRole(ctx, tr.ID, SelectRoleInput{Role: models.RoleAdmin, Name: "x", City: "y"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestClientIDsAreUniqueUnderConcurrency(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	const n = 30
	ids := make([]string, n)
	for i := range ids {
		ids[i] = register(t, svc, fmt.Sprintf("06%08d", i)).ID
	}

	var wg sync.WaitGroup
	got := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.SelectRole(ctx, ids[i], SelectRoleInput{Role: models.RoleClient, Name: "c", City: "Fès"})
			if assert.NoError(t, err) {
				got[i] = u.ClientID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range got {
		assert.False(t, seen[id], "duplicate client id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestValidateTransporterNotifies(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	tr := register(t, svc, "0622334455")
	_, err := svc.SelectRole(ctx, tr.ID, SelectRoleInput{Role: models.RoleTransporter, Name: "Y", City: "Rabat", TruckType: "plateau"})
	require.NoError(t, err)

	u, err := svc.ValidateTransporter(ctx, "admin-1", tr.ID, true)
	require.NoError(t, err)
	assert.True(t, u.CanWork())

	inbox, err := repos.Notifications.ListByUser(ctx, tr.ID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, string(notification.KindAccountValidated), inbox[0].Type)

	logs, err := repos.Audit.ListLogs(ctx, repository.LogFilter{TargetID: tr.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "validate_transporter", logs[0].Action)
}

func TestDeleteUserCascades(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	tr := register(t, svc, "0622334455")
	require.NoError(t, repos.Offers.Create(ctx, &models.Offer{ID: "o1", RequestID: "r1", TransporterID: tr.ID, Amount: "500"}))
	require.NoError(t, repos.Transporters.CreateEmptyReturn(ctx, &models.EmptyReturn{ID: "e1", TransporterID: tr.ID, FromCity: "Rabat", ToCity: "Fès", IsActive: true}))
	require.NoError(t, repos.Transporters.CreateReference(ctx, &models.TransporterReference{ID: "ref-1", TransporterID: tr.ID, ReferenceName: "Karim", Status: models.ReferencePending}))
	require.NoError(t, repos.Transporters.CreateReference(ctx, &models.TransporterReference{ID: "ref-2", TransporterID: "someone-else", ReferenceName: "Sara", Status: models.ReferencePending}))

	u, err := repos.Users.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	u.Role = models.RoleTransporter
	require.NoError(t, repos.Users.Update(ctx, u))

	require.NoError(t, svc.DeleteUser(ctx, "admin-1", tr.ID))

	_, err = repos.Users.GetByID(ctx, tr.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	offers, err := repos.Offers.ListByTransporter(ctx, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, offers)
	returns, err := repos.Transporters.ListEmptyReturns(ctx, tr.ID, false)
	require.NoError(t, err)
	assert.Empty(t, returns)
	refs, err := repos.Transporters.ListReferences(ctx, tr.ID, "")
	require.NoError(t, err)
	assert.Empty(t, refs)
	others, err := repos.Transporters.ListReferences(ctx, "someone-else", "")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestAdminsCannotBeDeletedOrBlocked(t *testing.T) {
	svc, repos := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "0600000000", "adminpass", "Admin"))
	require.NoError(t, svc.EnsureAdmin(ctx, "0600000000", "adminpass", "Admin"))
	admin, err := repos.Users.GetByPhone(ctx, "0600000000")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	assert.ErrorIs(t, svc.DeleteUser(ctx, "other", admin.ID), apperr.ErrForbidden)
	_, err = svc.SetBlocked(ctx, "other", admin.ID, true)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
