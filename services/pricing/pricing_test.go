package pricing

import (
	"context"
	"testing"

	"camionback/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommission(t *testing.T) {
	s := Settings{CommissionRate: 10}

	client, err := ClientAmount("1000", s)
	require.NoError(t, err)
	assert.Equal(t, "1100.00", client)

	commission, err := CommissionAmount("1000", s)
	require.NoError(t, err)
	assert.Equal(t, "100.00", commission)

	q, err := QuoteOffer("1 250,5", s)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, q.ClientAmount)

	q, err = QuoteOffer("1250,5", s)
	require.NoError(t, err)
	assert.Equal(t, Quote{OfferAmount: "1250.50", ClientAmount: "1375.55", CommissionAmount: "125.05", CommissionRate: 10}, q)
}

func TestNewSplit(t *testing.T) {
	split, err := NewSplit("500", "50")
	require.NoError(t, err)
	assert.Equal(t, Split{TransporterAmount: "500.00", PlatformFee: "50.00", ClientTotal: "550.00"}, split)

	_, err = NewSplit("0", "50")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = NewSplit("500", "-1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, Settings{CommissionRate: 0}.Validate())
	assert.NoError(t, Settings{CommissionRate: 100}.Validate())
	assert.Error(t, Settings{CommissionRate: 101}.Validate())
	assert.Error(t, Settings{CommissionRate: -1}.Validate())
}

func TestSumSkipsBlanks(t *testing.T) {
	total, err := Sum("100", "", "20.5")
	require.NoError(t, err)
	assert.Equal(t, "120.50", total)
}

func TestFixedSource(t *testing.T) {
	s, err := Fixed{CommissionRate: 12.5}.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, s.CommissionRate)
}
