package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryStatusHasExpectedConsistentPhase(t *testing.T) {
	for _, s := range RequestStatuses {
		for _, priced := range []bool{false, true} {
			c := ExpectedCoordination(s, priced)
			assert.True(t, ConsistentPair(s, c), "%s/%s", s, c)
		}
	}
}

func TestMoveRejectsInconsistentPair(t *testing.T) {
	from := State{Status: StatusOpen, Coordination: CoordQualified}

	_, err := Move(from, State{Status: StatusPublishedForMatching})
	var te *TransitionError
	require.True(t, errors.As(err, &te))

	next, err := Move(from, State{Status: StatusPublishedForMatching, Coordination: CoordMatching})
	require.NoError(t, err)
	assert.Equal(t, State{Status: StatusPublishedForMatching, Coordination: CoordMatching}, next)
}

func TestMoveRejectsForbiddenTransition(t *testing.T) {
	_, err := Move(State{Status: StatusCancelled, Coordination: CoordArchive}, State{Status: StatusOpen, Coordination: CoordQualified})
	assert.Error(t, err)

	_, err = Move(State{Status: StatusCompleted, Coordination: CoordAssigned}, State{Status: StatusExpired, Coordination: CoordArchive})
	assert.Error(t, err)
}

func TestPaymentChain(t *testing.T) {
	chain := []PaymentStatus{PaymentNone, PaymentToInvoice, PaymentAwaiting, PaymentPendingAdminValidation, PaymentPaidByClient, PaymentPaid}
	for i := 1; i < len(chain); i++ {
		assert.True(t, CanTransitionPayment(chain[i-1], chain[i]), "%q -> %q", chain[i-1], chain[i])
	}
	assert.True(t, CanTransitionPayment(PaymentPendingAdminValidation, PaymentAwaiting))
	assert.True(t, CanTransitionPayment(PaymentPaidByCamionback, PaymentToInvoice))
	assert.False(t, CanTransitionPayment(PaymentPaid, PaymentToInvoice))
	assert.False(t, CanTransitionPayment(PaymentToInvoice, PaymentPendingAdminValidation))
	assert.False(t, CanTransitionPayment(PaymentAwaiting, PaymentPaid))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryNew, CategoryOf(CoordQualificationPending, ""))
	assert.Equal(t, CategoryInAction, CategoryOf(CoordMatching, ""))
	assert.Equal(t, CategoryPriority, CategoryOf(CoordAssigned, CategoryPriority))
	assert.Equal(t, CategoryArchived, CategoryOf(CoordArchive, CategoryPriority))
	assert.Equal(t, CategoryInAction, CategoryOf(CoordQualified, CategoryArchived))
}
