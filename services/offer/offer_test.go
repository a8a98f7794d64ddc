package offer

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
	"camionback/services/pricing"
	"camionback/services/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var client = Viewer{ID: "client-1", Role: models.RoleClient}

func setup(t *testing.T) (*DefaultOfferService, repository.Repos) {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewRepos()
	logger := zap.NewNop()
	svc := NewDefaultOfferService(repos, notification.NewLocalNotifier(repos, logger),
		audit.NewRecorder(repos.Audit, logger), pricing.Fixed{CommissionRate: 10}, logger)

	users := []models.User{
		{ID: "client-1", Role: models.RoleClient},
		{ID: "tr-a", Role: models.RoleTransporter, Status: models.TransporterValidated, Name: "A"},
		{ID: "tr-b", Role: models.RoleTransporter, Status: models.TransporterValidated, Name: "B"},
		{ID: "tr-new", Role: models.RoleTransporter, Status: models.TransporterPending},
	}
	for i := range users {
		users[i].PhoneNumber = "06" + users[i].ID
		users[i].AccountStatus = models.AccountActive
		require.NoError(t, repos.Users.Create(ctx, &users[i]))
	}
	require.NoError(t, repos.Requests.Create(ctx, &models.TransportRequest{
		ID:                 "req-1",
		ReferenceID:        "CMD-00001",
		ClientID:           "client-1",
		FromCity:           "Tanger",
		ToCity:             "Agadir",
		Status:             workflow.StatusOpen,
		CoordinationStatus: workflow.CoordQualificationPending,
	}))
	return svc, repos
}

func bid(t *testing.T, svc *DefaultOfferService, transporterID, amount string) *models.Offer {
	t.Helper()
	o, err := svc.Submit(context.Background(), transporterID, "req-1", SubmitInput{
		Amount: amount, PickupDate: time.Now().Add(48 * time.Hour), LoadType: "complet",
	})
	require.NoError(t, err)
	return o
}

func TestSubmitRejectsDuplicateAndUnvalidated(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	bid(t, svc, "tr-a", "1000")

	_, err := svc.Submit(ctx, "tr-a", "req-1", SubmitInput{Amount: "900", PickupDate: time.Now(), LoadType: "complet"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Submit(ctx, "tr-new", "req-1", SubmitInput{Amount: "900", PickupDate: time.Now(), LoadType: "complet"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Submit(ctx, "tr-b", "req-1", SubmitInput{Amount: "abc", PickupDate: time.Now(), LoadType: "complet"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestClientSeesCommissionedAmount(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	bid(t, svc, "tr-a", "1000")
	bid(t, svc, "tr-b", "800")

	views, err := svc.ListForRequest(ctx, client, "req-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	amounts := map[string]string{}
	for _, v := range views {
		assert.Empty(t, v.Amount)
		require.NotNil(t, v.Transporter)
		amounts[v.TransporterID] = v.ClientAmount
	}
	assert.Equal(t, "1100.00", amounts["tr-a"])
	assert.Equal(t, "880.00", amounts["tr-b"])

	staff, err := svc.ListForRequest(ctx, Viewer{ID: "coord", Role: models.RoleCoordinator}, "req-1")
	require.NoError(t, err)
	for _, v := range staff {
		if v.TransporterID == "tr-a" {
			assert.Equal(t, "1000.00", v.Amount)
			assert.Equal(t, "100.00", v.CommissionAmount)
		}
	}

	own, err := svc.ListForRequest(ctx, Viewer{ID: "tr-b", Role: models.RoleTransporter}, "req-1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "tr-b", own[0].TransporterID)
	assert.Equal(t, "800.00", own[0].Amount)
}

func TestAcceptDeletesSiblingsAndCreatesContract(t *testing.T) {
	svc, repos := setup(t)
	ctx := context.Background()
	a := bid(t, svc, "tr-a", "1000")
	b := bid(t, svc, "tr-b", "800")

	res, err := svc.Accept(ctx, client, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Removed)
	assert.Equal(t, workflow.StatusAccepted, res.Request.Status)
	assert.Equal(t, workflow.CoordAssigned, res.Request.CoordinationStatus)
	assert.Equal(t, "1100.00", res.Request.ClientTotal)

	offers, err := repos.Offers.ListByRequest(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, a.ID, offers[0].ID)
	assert.Equal(t, models.OfferAccepted, offers[0].Status)

	_, err = repos.Offers.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	contract, err := repos.Contracts.GetByRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "tr-a", contract.TransporterID)
	assert.Equal(t, "client-1", contract.ClientID)
	assert.Equal(t, a.ID, contract.OfferID)

	stored, err := repos.Requests.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "tr-a", stored.AssignedTransporterID)
	assert.Equal(t, a.ID, stored.AcceptedOfferID)

	inbox, err := repos.Notifications.ListByUser(ctx, "tr-a", 10)
	require.NoError(t, err)
	require.NotEmpty(t, inbox)
	assert.Equal(t, string(notification.KindOfferAccepted), inbox[0].Type)
}

func TestAcceptIsIdempotent(t *testing.T) {
	svc, repos := setup(t)
	ctx := context.Background()
	a := bid(t, svc, "tr-a", "1000")

	first, err := svc.Accept(ctx, client, a.ID)
	require.NoError(t, err)
	second, err := svc.Accept(ctx, client, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Contract.ID, second.Contract.ID)

	contracts, err := repos.Contracts.List(ctx, "client-1", "")
	require.NoError(t, err)
	assert.Len(t, contracts, 1)
}

func TestAcceptRejectsSecondWinner(t *testing.T) {
	svc, repos := setup(t)
	ctx := context.Background()
	a := bid(t, svc, "tr-a", "1000")
	b := bid(t, svc, "tr-b", "800")

	// b is deleted by the first accept, so recreate a stale pending offer.
	_, err := svc.Accept(ctx, client, a.ID)
	require.NoError(t, err)
	require.NoError(t, repos.Offers.Create(ctx, b))

	_, err = svc.Accept(ctx, client, b.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestConcurrentAcceptPicksOneWinner(t *testing.T) {
	for round := 0; round < 20; round++ {
		svc, repos := setup(t)
		ctx := context.Background()
		offers := []*models.Offer{bid(t, svc, "tr-a", "1000"), bid(t, svc, "tr-b", "800")}

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, len(offers))
		)
		for i, o := range offers {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				<-start
				_, errs[i] = svc.Accept(ctx, client, id)
			}(i, o.ID)
		}
		close(start)
		wg.Wait()

		var wins int
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.True(t, errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound),
				"loser got %v", err)
		}
		require.Equal(t, 1, wins)

		left, err := repos.Offers.ListByRequest(ctx, "req-1")
		require.NoError(t, err)
		require.Len(t, left, 1)
		contracts, err := repos.Contracts.List(ctx, "", "")
		require.NoError(t, err)
		require.Len(t, contracts, 1)
		assert.Equal(t, left[0].ID, contracts[0].OfferID)

		req, err := repos.Requests.GetByID(ctx, "req-1")
		require.NoError(t, err)
		assert.Equal(t, left[0].ID, req.AcceptedOfferID)
		assert.Equal(t, left[0].TransporterID, req.AssignedTransporterID)
	}
}

func TestAcceptByStrangerForbidden(t *testing.T) {
	svc, _ := setup(t)
	a := bid(t, svc, "tr-a", "1000")
	_, err := svc.Accept(context.Background(), Viewer{ID: "someone", Role: models.RoleClient}, a.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDeleteOwnPendingOffer(t *testing.T) {
	svc, repos := setup(t)
	ctx := context.Background()
	a := bid(t, svc, "tr-a", "1000")
	bid(t, svc, "tr-b", "800")

	assert.ErrorIs(t, svc.Delete(ctx, "tr-b", a.ID), apperr.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, "tr-a", a.ID))

	n, err := repos.Offers.CountByRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
