package admin

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"camionback/apperr"
	"camionback/database/repository"
	"camionback/database/repository/memory"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
	"camionback/services/pricing"
	"camionback/services/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*DefaultAdminService, repository.Repos) {
	t.Helper()
	repos := memory.NewRepos()
	logger := zap.NewNop()
	d := notification.NewDispatcher(repos, notification.LogPusher{Logger: logger},
		notification.LogSMSSender{Logger: logger}, notification.LogMailer{Logger: logger}, "", logger)
	notifier := notification.NewNotifier(repos.Notifications, notification.NewInlineQueue(d), logger)
	svc := NewDefaultAdminService(repos, notifier, d, audit.NewRecorder(repos.Audit, logger), 10, logger)
	return svc, repos
}

func seedUser(t *testing.T, repos repository.Repos, id string, role models.Role, status models.TransporterStatus) {
	t.Helper()
	require.NoError(t, repos.Users.Create(context.Background(), &models.User{
		ID:            id,
		PhoneNumber:   "06" + id,
		Name:          id,
		Role:          role,
		Status:        status,
		AccountStatus: models.AccountActive,
	}))
}

func seedRequest(t *testing.T, repos repository.Repos, ref string, payment workflow.PaymentStatus) {
	t.Helper()
	req := &models.TransportRequest{
		ID:                    ref,
		ReferenceID:           ref,
		ClientID:              "client-1",
		FromCity:              "Casablanca",
		ToCity:                "Rabat",
		Status:                workflow.StatusAccepted,
		CoordinationStatus:    workflow.CoordAssigned,
		PaymentStatus:         payment,
		AssignedTransporterID: "tr-1",
		TransporterAmount:     "500.00",
		PlatformFee:           "50.00",
		ClientTotal:           "550.00",
		DateTime:              time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repos.Requests.Create(context.Background(), req))
}

func TestSettingsFallBackToDefaultRate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, current.CommissionRate)

	_, err = svc.UpdateSettings(ctx, "admin-1", pricing.Settings{CommissionRate: 150})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	saved, err := svc.UpdateSettings(ctx, "admin-1", pricing.Settings{CommissionRate: 12.5})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", saved.UpdatedBy)

	current, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.5, current.CommissionRate)

	logs, err := svc.ListLogs(ctx, repository.LogFilter{TargetID: models.SettingsID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "update_settings", logs[0].Action)
}

func TestStats(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	seedUser(t, repos, "client-1", models.RoleClient, "")
	seedUser(t, repos, "tr-1", models.RoleTransporter, models.TransporterValidated)
	seedUser(t, repos, "tr-2", models.RoleTransporter, models.TransporterPending)
	seedRequest(t, repos, "CMD-00001", workflow.PaymentPaid)
	seedRequest(t, repos, "CMD-00002", workflow.PaymentPaidByClient)
	seedRequest(t, repos, "CMD-00003", workflow.PaymentPendingAdminValidation)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Clients)
	assert.EqualValues(t, 2, st.Transporters)
	assert.EqualValues(t, 1, st.PendingTransporters)
	assert.EqualValues(t, 3, st.Requests[workflow.StatusAccepted])
	assert.EqualValues(t, 1, st.PendingPayments)
	assert.Equal(t, "100.00", st.Commission)
	assert.Equal(t, "1100.00", st.Volume)
}

func TestCoordinationStatusCatalog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCoordinationStatus(ctx, "admin-1", CoordinationStatusInput{Value: "x", Label: "X", Category: "bogus"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	tag, err := svc.CreateCoordinationStatus(ctx, "admin-1", CoordinationStatusInput{
		Value: "client_injoignable", Label: "Client injoignable", Category: workflow.CategoryPriority,
	})
	require.NoError(t, err)
	assert.True(t, tag.IsActive)

	_, err = svc.CreateCoordinationStatus(ctx, "admin-1", CoordinationStatusInput{
		Value: "client_injoignable", Label: "Doublon", Category: workflow.CategoryNew,
	})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	off := false
	updated, err := svc.UpdateCoordinationStatus(ctx, "admin-1", tag.ID, CoordinationStatusInput{
		Value: "renamed", Label: "Injoignable", Category: workflow.CategoryInAction, IsActive: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "client_injoignable", updated.Value)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.DeleteCoordinationStatus(ctx, "admin-1", tag.ID))
	list, err := svc.ListCoordinationStatuses(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCities(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rabat, err := svc.CreateCity(ctx, "admin-1", " Rabat ")
	require.NoError(t, err)
	assert.Equal(t, "Rabat", rabat.Name)

	_, err = svc.CreateCity(ctx, "admin-1", "rabat")
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = svc.CreateCity(ctx, "admin-1", "Agadir")
	require.NoError(t, err)
	_, err = svc.UpdateCity(ctx, "admin-1", rabat.ID, "agadir")
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = svc.UpdateCity(ctx, "admin-1", rabat.ID, "Salé")
	require.NoError(t, err)

	cities, err := svc.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "Agadir", cities[0].Name)
	assert.Equal(t, "Salé", cities[1].Name)
}

func TestStoriesFilterByAudience(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	off := false
	_, err := svc.CreateStory(ctx, "admin-1", StoryInput{Title: "Promo", Content: "-10%", Audience: "client", DisplayOrder: 2})
	require.NoError(t, err)
	_, err = svc.CreateStory(ctx, "admin-1", StoryInput{Title: "Bienvenue", Content: "Hello", DisplayOrder: 1})
	require.NoError(t, err)
	_, err = svc.CreateStory(ctx, "admin-1", StoryInput{Title: "Old", Content: "x", IsActive: &off})
	require.NoError(t, err)
	_, err = svc.CreateStory(ctx, "admin-1", StoryInput{Title: "Bad", Content: "x", Audience: "admin"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	forTransporters, err := svc.ListStories(ctx, true, models.RoleTransporter)
	require.NoError(t, err)
	require.Len(t, forTransporters, 1)
	assert.Equal(t, "Bienvenue", forTransporters[0].Title)

	forClients, err := svc.ListStories(ctx, true, models.RoleClient)
	require.NoError(t, err)
	require.Len(t, forClients, 2)
	assert.Equal(t, "Bienvenue", forClients[0].Title)

	all, err := svc.ListStories(ctx, false, models.RoleNone)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestResolveReportOnce(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repos.Reports.Create(ctx, &models.Report{
		ID: "rep-1", RequestID: "req-1", ReporterID: "client-1", Type: "retard", Status: models.ReportPending,
	}))

	report, err := svc.ResolveReport(ctx, "admin-1", "rep-1", "Transporteur averti")
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, report.Status)
	assert.NotNil(t, report.ResolvedAt)

	_, err = svc.ResolveReport(ctx, "admin-1", "rep-1", "")
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	pending, err := svc.ListReports(ctx, models.ReportPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSMSIsRecorded(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	seedUser(t, repos, "client-1", models.RoleClient, "")
	seedUser(t, repos, "tr-1", models.RoleTransporter, models.TransporterValidated)

	assert.True(t, errors.Is(svc.SendSMS(ctx, "admin-1", "0600000000", "  "), apperr.ErrValidation))
	assert.True(t, errors.Is(svc.BroadcastSMS(ctx, "admin-1", "nobody", "Hello"), apperr.ErrValidation))

	require.NoError(t, svc.SendSMS(ctx, "admin-1", "0600000000", "Votre compte est prêt"))
	require.NoError(t, svc.BroadcastSMS(ctx, "admin-1", notification.AudienceAll, "Maintenance ce soir"))

	history, err := svc.SmsHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	var campaign *models.SmsHistory
	for i := range history {
		if history[i].TargetAudience == string(notification.AudienceAll) {
			campaign = &history[i]
		}
	}
	require.NotNil(t, campaign)
	assert.Equal(t, 2, campaign.RecipientCount)
}

func TestExports(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	seedUser(t, repos, "client-1", models.RoleClient, "")
	seedUser(t, repos, "tr-1", models.RoleTransporter, models.TransporterValidated)
	seedRequest(t, repos, "CMD-00001", workflow.PaymentPaid)
	require.NoError(t, repos.Requests.Create(ctx, &models.TransportRequest{
		ID: "CMD-00002", ReferenceID: "CMD-00002", ClientID: "client-1",
		Status: workflow.StatusOpen, CoordinationStatus: workflow.CoordQualificationPending,
	}))

	data, err := svc.ExportRequests(ctx, models.RequestFilter{})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	rows, err := f.GetRows("Commandes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Référence", rows[0][0])
	assert.Equal(t, "client-1", rows[1][1])

	data, err = svc.ExportPayments(ctx)
	require.NoError(t, err)
	f, err = excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	rows, err = f.GetRows("Paiements")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CMD-00001", rows[1][0])
	assert.Equal(t, "tr-1", rows[1][2])
}

func TestLegalSectionsForRole(t *testing.T) {
	svc, _ := newTestService(t)
	for _, s := range svc.GetLegalSectionsFor(models.RoleTransporter) {
		assert.NotEqual(t, models.RoleClient, s.Audience)
	}
	assert.Len(t, svc.GetLegalSectionsFor(models.RoleAdmin), len(svc.GetLegalSections()))
	assert.Len(t, svc.GetLegalSectionsFor(models.RoleClient), 3)
}
