// Package pricing implements commission arithmetic on decimal-string amounts.
package pricing

import (
	"context"
	"math"
	"strconv"
	"strings"

	"camionback/apperr"
)

// DefaultCommissionRate is used when no settings row exists yet.
const DefaultCommissionRate = 10.0

// Settings are the platform-wide pricing parameters. Callers load them once
// and pass them into each calculation.
type Settings struct {
	CommissionRate float64 `json:"commissionRate"`
}

func (s Settings) Validate() error {
	if math.IsNaN(s.CommissionRate) || s.CommissionRate < 0 || s.CommissionRate > 100 {
		return apperr.Validation("commission rate must be between 0 and 100")
	}
	return nil
}

// Source yields the settings in force. Callers read it once per operation.
type Source interface {
	Current(ctx context.Context) (Settings, error)
}

// Fixed is a Source that never changes.
type Fixed Settings

func (f Fixed) Current(context.Context) (Settings, error) { return Settings(f), nil }

// Quote is the price breakdown shown for an offer.
type Quote struct {
	OfferAmount      string  `json:"offerAmount"`
	ClientAmount     string  `json:"clientAmount"`
	CommissionAmount string  `json:"commissionAmount"`
	CommissionRate   float64 `json:"commissionRate"`
}

// ParseAmount reads a non-negative decimal amount. A comma is accepted as
// the decimal separator.
func ParseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperr.Validation("invalid amount: " + raw)
	}
	if v < 0 {
		return 0, apperr.Validation("amount must not be negative")
	}
	return v, nil
}

// FormatAmount renders v with two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
}

// Normalize re-serializes raw in canonical two-decimal form.
func Normalize(raw string) (string, error) {
	v, err := ParseAmount(raw)
	if err != nil {
		return "", err
	}
	return FormatAmount(v), nil
}

// ClientAmount is the offer amount with the commission added on top.
func ClientAmount(offerAmount string, s Settings) (string, error) {
	v, err := ParseAmount(offerAmount)
	if err != nil {
		return "", err
	}
	return FormatAmount(v * (1 + s.CommissionRate/100)), nil
}

// CommissionAmount is the platform's share of offerAmount.
func CommissionAmount(offerAmount string, s Settings) (string, error) {
	v, err := ParseAmount(offerAmount)
	if err != nil {
		return "", err
	}
	return FormatAmount(v * s.CommissionRate / 100), nil
}

// QuoteOffer builds the full breakdown for an offer amount.
func QuoteOffer(offerAmount string, s Settings) (Quote, error) {
	client, err := ClientAmount(offerAmount, s)
	if err != nil {
		return Quote{}, err
	}
	commission, err := CommissionAmount(offerAmount, s)
	if err != nil {
		return Quote{}, err
	}
	normalized, _ := Normalize(offerAmount)
	return Quote{
		OfferAmount:      normalized,
		ClientAmount:     client,
		CommissionAmount: commission,
		CommissionRate:   s.CommissionRate,
	}, nil
}

// Split is the coordinator-set price breakdown of a qualified request.
type Split struct {
	TransporterAmount string `json:"transporterAmount"`
	PlatformFee       string `json:"platformFee"`
	ClientTotal       string `json:"clientTotal"`
}

// NewSplit validates both parts and computes the client total.
func NewSplit(transporterAmount, platformFee string) (Split, error) {
	t, err := ParseAmount(transporterAmount)
	if err != nil {
		return Split{}, err
	}
	if t == 0 {
		return Split{}, apperr.Validation("transporter amount must be positive")
	}
	f, err := ParseAmount(platformFee)
	if err != nil {
		return Split{}, err
	}
	return Split{
		TransporterAmount: FormatAmount(t),
		PlatformFee:       FormatAmount(f),
		ClientTotal:       FormatAmount(t + f),
	}, nil
}

// Sum adds decimal-string amounts, ignoring blanks.
func Sum(amounts ...string) (string, error) {
	var total float64
	for _, a := range amounts {
		if strings.TrimSpace(a) == "" {
			continue
		}
		v, err := ParseAmount(a)
		if err != nil {
			return "", err
		}
		total += v
	}
	return FormatAmount(total), nil
}
