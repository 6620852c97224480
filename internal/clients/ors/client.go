package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roadwatch/backend/internal/domain"
)

// DefaultBaseURL is the OpenRouteService API root
const DefaultBaseURL = "https://api.openrouteservice.org"

// AvoidBoxDegrees is the half-width of the square avoided around each point (~150 m)
const AvoidBoxDegrees = 0.0015

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the OpenRouteService directions API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates an OpenRouteService client
func NewClient(apiKey, baseURL string) *Client {
	return NewClientWithHTTPDoer(apiKey, baseURL, &http.Client{Timeout: 15 * time.Second})
}

// NewClientWithHTTPDoer creates a client with a custom transport
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, httpClient: doer}
}

type directionsRequest struct {
	Coordinates [][2]float64       `json:"coordinates"`
	Options     *directionsOptions `json:"options,omitempty"`
}

type directionsOptions struct {
	AvoidPolygons *MultiPolygon `json:"avoid_polygons,omitempty"`
}

// MultiPolygon is a GeoJSON MultiPolygon geometry
type MultiPolygon struct {
	Type        string           `json:"type"`
	Coordinates [][][][2]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"` // meters
				Duration float64 `json:"duration"` // seconds
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Directions computes a driving route. Every avoid point becomes a small square
// the route must not enter.
func (c *Client) Directions(ctx context.Context, start, end domain.Coordinates, avoid []domain.Coordinates) (domain.RouteResult, error) {
	body := directionsRequest{
		Coordinates: [][2]float64{
			{start.Lon, start.Lat},
			{end.Lon, end.Lat},
		},
	}
	if len(avoid) > 0 {
		body.Options = &directionsOptions{AvoidPolygons: AvoidPolygons(avoid)}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("ors: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/directions/driving-car/geojson", bytes.NewReader(jsonBody))
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("ors: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("ors: request failed: %w: %w", domain.ErrRoutingProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.RouteResult{}, fmt.Errorf("ors: rate limit exceeded: %w", domain.ErrRoutingProviderUnavailable)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.RouteResult{}, fmt.Errorf("ors: API error %d: %s: %w", resp.StatusCode, string(msg), domain.ErrRoutingProviderUnavailable)
	}
	// other 4xx answers (unroutable point, route not found) reject the request itself
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.RouteResult{}, fmt.Errorf("ors: status %d: %s: %w", resp.StatusCode, string(msg), domain.ErrNoRoute)
	}

	var data directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return domain.RouteResult{}, fmt.Errorf("ors: failed to decode response: %w: %w", domain.ErrRoutingProviderUnavailable, err)
	}
	if len(data.Features) == 0 {
		return domain.RouteResult{}, fmt.Errorf("ors: no routes found in response: %w", domain.ErrNoRoute)
	}

	feature := data.Features[0]
	coords := make([]domain.LonLat, 0, len(feature.Geometry.Coordinates))
	for _, p := range feature.Geometry.Coordinates {
		if len(p) < 2 {
			continue
		}
		coords = append(coords, domain.LonLat{p[0], p[1]})
	}

	return domain.RouteResult{
		DistanceKm:      feature.Properties.Summary.Distance / 1000,
		DurationMinutes: feature.Properties.Summary.Duration / 60,
		Coordinates:     coords,
	}, nil
}

// AvoidPolygons builds a GeoJSON MultiPolygon with one square per point
func AvoidPolygons(points []domain.Coordinates) *MultiPolygon {
	mp := &MultiPolygon{Type: "MultiPolygon"}
	for _, p := range points {
		d := AvoidBoxDegrees
		ring := [][2]float64{
			{p.Lon - d, p.Lat - d},
			{p.Lon + d, p.Lat - d},
			{p.Lon + d, p.Lat + d},
			{p.Lon - d, p.Lat + d},
			{p.Lon - d, p.Lat - d},
		}
		mp.Coordinates = append(mp.Coordinates, [][][2]float64{ring})
	}
	return mp
}
