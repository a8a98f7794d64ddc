package request

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"camionback/apperr"
	"camionback/database/repository"
	"camionback/database/repository/memory"
	"camionback/models"
	"camionback/services/audit"
	"camionback/services/notification"
	"camionback/services/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedDistance struct {
	km  float64
	err error
}

func (f fixedDistance) DistanceKm(context.Context, string, string) (float64, error) {
	return f.km, f.err
}

type fixture struct {
	svc   *DefaultRequestService
	repos repository.Repos
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepos()
	logger := zap.NewNop()
	svc := NewDefaultRequestService(repos, notification.NewLocalNotifier(repos, logger),
		audit.NewRecorder(repos.Audit, logger), fixedDistance{km: 240}, logger)

	f := &fixture{svc: svc, repos: repos}
	f.user(t, "client-1", models.RoleClient, "")
	f.user(t, "coord-1", models.RoleCoordinator, "")
	f.user(t, "admin-1", models.RoleAdmin, "")
	f.user(t, "tr-a", models.RoleTransporter, models.TransporterValidated)
	f.user(t, "tr-b", models.RoleTransporter, models.TransporterValidated)
	f.user(t, "tr-pending", models.RoleTransporter, models.TransporterPending)
	return f
}

func (f *fixture) user(t *testing.T, id string, role models.Role, status models.TransporterStatus) {
	t.Helper()
	require.NoError(t, f.repos.Users.Create(context.Background(), &models.User{
		ID:            id,
		PhoneNumber:   "06" + id,
		Name:          id,
		Role:          role,
		Status:        status,
		AccountStatus: models.AccountActive,
	}))
}

func (f *fixture) create(t *testing.T) *models.TransportRequest {
	t.Helper()
	req, err := f.svc.Create(context.Background(), "client-1", CreateInput{
		FromCity:    "Casablanca",
		ToCity:      "Marrakech",
		Description: "Déménagement 2 pièces",
		GoodsType:   "meubles",
		DateTime:    time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) published(t *testing.T) *models.TransportRequest {
	t.Helper()
	ctx := context.Background()
	req := f.create(t)
	_, err := f.svc.Qualify(ctx, "coord-1", req.ID, QualifyInput{TransporterAmount: "500", PlatformFee: "50"})
	require.NoError(t, err)
	req, err = f.svc.Publish(ctx, "coord-1", req.ID)
	require.NoError(t, err)
	return req
}

func TestCreateAssignsReferenceAndInitialState(t *testing.T) {
	f := newFixture(t)
	first := f.create(t)
	second := f.create(t)

	assert.Equal(t, "CMD-00001", first.ReferenceID)
	assert.Equal(t, "CMD-00002", second.ReferenceID)
	assert.Equal(t, workflow.StatusOpen, first.Status)
	assert.Equal(t, workflow.CoordQualificationPending, first.CoordinationStatus)
	assert.Equal(t, workflow.PaymentNone, first.PaymentStatus)

	_, err := f.svc.Create(context.Background(), "client-1", CreateInput{FromCity: "Rabat", ToCity: "Fès", Description: "x", GoodsType: "y"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestQualifyPublishInterestChoose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)

	q, err := f.svc.Qualify(ctx, "coord-1", req.ID, QualifyInput{TransporterAmount: "500", PlatformFee: "50"})
	require.NoError(t, err)
	assert.Equal(t, "550.00", q.ClientTotal)
	assert.Equal(t, 240.0, q.DistanceKm)
	assert.Equal(t, workflow.CoordQualified, q.CoordinationStatus)
	assert.NotNil(t, q.QualifiedAt)

	_, err = f.svc.Qualify(ctx, "coord-1", req.ID, QualifyInput{TransporterAmount: "600", PlatformFee: "50"})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	p, err := f.svc.Publish(ctx, "coord-1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPublishedForMatching, p.Status)
	assert.Equal(t, workflow.CoordMatching, p.CoordinationStatus)

	inbox, err := f.repos.Notifications.ListByUser(ctx, "tr-a", 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, string(notification.KindRequestPublished), inbox[0].Type)
	pending, err := f.repos.Notifications.ListByUser(ctx, "tr-pending", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.ExpressInterest(ctx, "tr-a", req.ID)
	require.NoError(t, err)

	chosen, err := f.svc.ChooseTransporter(ctx, "client-1", req.ID, "tr-a")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAccepted, chosen.Status)
	assert.Equal(t, workflow.CoordAssigned, chosen.CoordinationStatus)
	assert.Equal(t, "tr-a", chosen.AssignedTransporterID)
	assert.Equal(t, workflow.PaymentToInvoice, chosen.PaymentStatus)

	stored, err := f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, chosen.State(), stored.State())
}

func TestChooseTransporterRequiresInterest(t *testing.T) {
	f := newFixture(t)
	req := f.published(t)
	_, err := f.svc.ChooseTransporter(context.Background(), "client-1", req.ID, "tr-b")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPublishRequiresPricing(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	_, err := f.svc.Publish(context.Background(), "coord-1", req.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestInterestIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.published(t)

	for i := 0; i < 2; i++ {
		_, err := f.svc.ExpressInterest(ctx, "tr-a", req.ID)
		require.NoError(t, err)
	}
	stored, err := f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tr-a"}, stored.TransporterInterests)

	clientInbox, err := f.repos.Notifications.ListByUser(ctx, "client-1", 10)
	require.NoError(t, err)
	assert.Len(t, clientInbox, 1)

	_, err = f.svc.ExpressInterest(ctx, "tr-b", req.ID)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := f.svc.WithdrawInterest(ctx, "tr-a", req.ID)
		require.NoError(t, err)
	}
	stored, err = f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tr-b"}, stored.TransporterInterests)

	_, err = f.svc.ExpressInterest(ctx, "tr-pending", req.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestInterestOnlyWhileMatching(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	_, err := f.svc.ExpressInterest(context.Background(), "tr-a", req.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCompleteWithRatingOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.published(t)
	_, err := f.svc.ExpressInterest(ctx, "tr-a", req.ID)
	require.NoError(t, err)
	_, err = f.svc.ChooseTransporter(ctx, "client-1", req.ID, "tr-a")
	require.NoError(t, err)

	_, err = f.svc.CompleteWithRating(ctx, "client-1", req.ID, RatingInput{Score: 6})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	done, err := f.svc.CompleteWithRating(ctx, "client-1", req.ID, RatingInput{Score: 4, Comment: "ponctuel"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, done.Status)
	assert.Equal(t, workflow.CoordAssigned, done.CoordinationStatus)

	tr, err := f.repos.Users.GetByID(ctx, "tr-a")
	require.NoError(t, err)
	assert.Equal(t, 4.0, tr.Rating)
	assert.Equal(t, 1, tr.TotalRatings)
	assert.Equal(t, 1, tr.TotalTrips)

	_, err = f.svc.CompleteWithRating(ctx, "client-1", req.ID, RatingInput{Score: 5})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestPaymentChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)

	_, err := f.svc.AssignManually(ctx, "coord-1", req.ID, AssignInput{TransporterID: "tr-b"})
	assert.ErrorIs(t, err, apperr.ErrValidation, "unqualified request needs a price")

	assigned, err := f.svc.AssignManually(ctx, "coord-1", req.ID, AssignInput{TransporterID: "tr-b", TransporterAmount: "800", PlatformFee: "80"})
	require.NoError(t, err)
	assert.True(t, assigned.AssignedManually)
	assert.Equal(t, "880.00", assigned.ClientTotal)
	assert.Equal(t, workflow.PaymentToInvoice, assigned.PaymentStatus)

	_, err = f.svc.MarkAsPaid(ctx, "client-1", req.ID, "receipt-url")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "client cannot pay before billing")

	_, err = f.svc.MarkForBilling(ctx, "coord-1", req.ID)
	require.NoError(t, err)
	paid, err := f.svc.MarkAsPaid(ctx, "client-1", req.ID, "receipt-url")
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentPendingAdminValidation, paid.PaymentStatus)

	rejected, err := f.svc.RejectPayment(ctx, "admin-1", req.ID, "illisible")
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentAwaiting, rejected.PaymentStatus)
	assert.Empty(t, rejected.PaymentReceipt)

	_, err = f.svc.MarkAsPaid(ctx, "client-1", req.ID, "receipt-2")
	require.NoError(t, err)
	validated, err := f.svc.ValidatePayment(ctx, "admin-1", req.ID, PayerClient)
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentPaidByClient, validated.PaymentStatus)

	contract, err := f.repos.Contracts.GetByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "tr-b", contract.TransporterID)
	assert.Equal(t, "800.00", contract.Amount)

	settled, err := f.svc.SettlePayment(ctx, "admin-1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentPaid, settled.PaymentStatus)

	_, err = f.svc.ResetPayment(ctx, "admin-1", req.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestArchiveRequalifyCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.published(t)
	_, err := f.svc.ExpressInterest(ctx, "tr-a", req.ID)
	require.NoError(t, err)

	_, err = f.svc.Archive(ctx, "coord-1", req.ID, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	archived, err := f.svc.Archive(ctx, "coord-1", req.ID, "client injoignable")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusExpired, archived.Status)
	assert.Equal(t, workflow.CoordArchive, archived.CoordinationStatus)

	requalified, err := f.svc.Requalify(ctx, "coord-1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPublishedForMatching, requalified.Status)
	assert.Equal(t, workflow.CoordMatching, requalified.CoordinationStatus)
	assert.Empty(t, requalified.TransporterInterests)
	assert.Equal(t, "550.00", requalified.ClientTotal)

	_, err = f.svc.Cancel(ctx, Actor{ID: "client-1", Role: models.RoleClient}, req.ID, "plus besoin")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	cancelled, err := f.svc.Cancel(ctx, Actor{ID: "coord-1", Role: models.RoleCoordinator}, req.ID, "plus besoin")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, cancelled.Status)

	notes, err := f.svc.ListNotes(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Content, "plus besoin")

	_, err = f.svc.Republish(ctx, "client-1", req.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestRepublishResetsToOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	_, err := f.svc.AssignManually(ctx, "coord-1", req.ID, AssignInput{TransporterID: "tr-a", TransporterAmount: "300", PlatformFee: "30"})
	require.NoError(t, err)

	date := time.Date(2026, 12, 1, 8, 0, 0, 0, time.UTC)
	again, err := f.svc.Republish(ctx, "client-1", req.ID, &date)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusOpen, again.Status)
	assert.Equal(t, workflow.CoordQualified, again.CoordinationStatus)
	assert.Empty(t, again.AssignedTransporterID)
	assert.Equal(t, date, again.DateTime)
}

func TestEveryStoredPairIsConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t)
	f.published(t)
	r := f.published(t)
	_, err := f.svc.ExpressInterest(ctx, "tr-a", r.ID)
	require.NoError(t, err)
	_, err = f.svc.ChooseTransporter(ctx, "client-1", r.ID, "tr-a")
	require.NoError(t, err)
	_, err = f.svc.CompleteWithRating(ctx, "client-1", r.ID, RatingInput{Score: 5})
	require.NoError(t, err)
	a := f.create(t)
	_, err = f.svc.Archive(ctx, "coord-1", a.ID, "doublon")
	require.NoError(t, err)

	report, err := f.svc.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, report.Total)
	assert.Empty(t, report.Inconsistent)
}

func TestRepairFixesInconsistentPairs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)

	broken, err := f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	broken.Status = workflow.StatusExpired
	require.NoError(t, f.repos.Requests.Update(ctx, broken))

	report, err := f.svc.CheckConsistency(ctx)
	require.NoError(t, err)
	require.Len(t, report.Inconsistent, 1)

	fixed, err := f.svc.Repair(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	stored, err := f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.CoordArchive, stored.CoordinationStatus)
}

func TestQualifySurvivesDistanceFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.distance = fixedDistance{err: errors.New("quota exceeded")}
	req := f.create(t)
	q, err := f.svc.Qualify(context.Background(), "coord-1", req.ID, QualifyInput{TransporterAmount: "500", PlatformFee: "50"})
	require.NoError(t, err)
	assert.Zero(t, q.DistanceKm)
}

func TestListByCategoryUsesTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repos.Catalog.CreateCoordinationStatus(ctx, &models.CoordinationStatusConfig{
		ID: "cs-1", Value: "urgent", Label: "Urgent", Category: workflow.CategoryPriority, IsActive: true,
	}))
	fresh := f.create(t)
	tagged := f.create(t)
	_, err := f.svc.UpdateCoordination(ctx, "coord-1", tagged.ID, CoordinationInput{Tag: "urgent", Reason: "date proche"})
	require.NoError(t, err)

	_, err = f.svc.UpdateCoordination(ctx, "coord-1", tagged.ID, CoordinationInput{Tag: "inconnu"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	priority, err := f.svc.ListByCategory(ctx, workflow.CategoryPriority, models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, priority, 1)
	assert.Equal(t, tagged.ID, priority[0].ID)

	fresh2, err := f.svc.ListByCategory(ctx, workflow.CategoryNew, models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, fresh2, 1)
	assert.Equal(t, fresh.ID, fresh2[0].ID)
}

func TestTrackingQR(t *testing.T) {
	png, err := TrackingQR(&models.TransportRequest{ReferenceID: "CMD-00042"})
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestStaleWriteDoesNotDropInterest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.published(t)

	stale, err := f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	added, err := f.repos.Requests.AddInterest(ctx, req.ID, "tr-a")
	require.NoError(t, err)
	require.True(t, added)

	stale.CoordinationReason = "rappeler le client"
	err = f.repos.Requests.UpdateGuarded(ctx, stale, stale.State())
	assert.ErrorIs(t, err, apperr.ErrConflict)

	stored, err := f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tr-a"}, stored.TransporterInterests)
	assert.Empty(t, stored.CoordinationReason)

	// The service reads fresh and keeps the interest.
	updated, err := f.svc.UpdateCoordination(ctx, "coord-1", req.ID, CoordinationInput{Reason: "rappeler le client"})
	require.NoError(t, err)
	assert.Equal(t, "rappeler le client", updated.CoordinationReason)
	assert.Equal(t, []string{"tr-a"}, updated.TransporterInterests)
}

func TestConcurrentPaymentDecisionsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	_, err := f.svc.AssignManually(ctx, "coord-1", req.ID, AssignInput{TransporterID: "tr-b", TransporterAmount: "800", PlatformFee: "80"})
	require.NoError(t, err)
	_, err = f.svc.MarkForBilling(ctx, "coord-1", req.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkAsPaid(ctx, "client-1", req.ID, "receipt-url")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.svc.ValidatePayment(ctx, "admin-1", req.ID, PayerClient)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.svc.RejectPayment(ctx, "admin-1", req.ID, "illisible")
	}()
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	stored, err := f.repos.Requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	if errs[0] == nil {
		assert.Equal(t, workflow.PaymentPaidByClient, stored.PaymentStatus)
	} else {
		assert.Equal(t, workflow.PaymentAwaiting, stored.PaymentStatus)
	}
}
