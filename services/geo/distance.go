// Package geo resolves road distances between two addresses.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrNoRoute is returned when the provider knows no road between the points.
var ErrNoRoute = errors.New("no route found")

// DistanceService returns the road distance in kilometers.
type DistanceService interface {
	DistanceKm(ctx context.Context, origin, destination string) (float64, error)
}

const distanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// DistanceMatrixResponse is the part of the Google Distance Matrix reply we read.
type DistanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// GoogleDistance calls the Google Distance Matrix API.
type GoogleDistance struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewGoogleDistance(apiKey string) *GoogleDistance {
	return &GoogleDistance{
		APIKey:  apiKey,
		BaseURL: distanceMatrixURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GoogleDistance) DistanceKm(ctx context.Context, origin, destination string) (float64, error) {
	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("units", "metric")
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("distance request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("distance provider returned %d", resp.StatusCode)
	}

	var matrix DistanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&matrix); err != nil {
		return 0, fmt.Errorf("failed to decode distance response: %w", err)
	}
	if matrix.Status != "OK" {
		return 0, fmt.Errorf("distance provider status %s", matrix.Status)
	}
	if len(matrix.Rows) == 0 || len(matrix.Rows[0].Elements) == 0 || matrix.Rows[0].Elements[0].Status != "OK" {
		return 0, ErrNoRoute
	}
	meters := matrix.Rows[0].Elements[0].Distance.Value
	return float64(meters) / 1000, nil
}

// NoopDistance is used when no API key is configured.
type NoopDistance struct{}

func (NoopDistance) DistanceKm(context.Context, string, string) (float64, error) {
	return 0, ErrNoRoute
}
