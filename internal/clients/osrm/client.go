package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/roadwatch/backend/internal/domain"
)

// DefaultBaseURL is the public OSRM demo server
const DefaultBaseURL = "http://router.project-osrm.org"

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the OSRM route service. No API key is required.
type Client struct {
	baseURL    string
	profile    string
	httpClient HTTPDoer
}

// NewClient creates an OSRM client for the driving profile
func NewClient(baseURL string) *Client {
	return NewClientWithHTTPDoer(baseURL, &http.Client{Timeout: 15 * time.Second})
}

// NewClientWithHTTPDoer creates a client with a custom transport
func NewClientWithHTTPDoer(baseURL string, doer HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, profile: "driving", httpClient: doer}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry string  `json:"geometry"` // encoded polyline, precision 5
	} `json:"routes"`
}

// Routes returns the primary route first, followed by any alternatives OSRM found
func (c *Client) Routes(ctx context.Context, start, end domain.Coordinates, alternatives bool) ([]domain.RouteResult, error) {
	// OSRM uses lon,lat order
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=polyline&alternatives=%t",
		c.baseURL, c.profile,
		start.Lon, start.Lat,
		end.Lon, end.Lat,
		alternatives,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("osrm: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm: request failed: %w: %w", domain.ErrRoutingProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("osrm: status %d: %s: %w", resp.StatusCode, string(body), domain.ErrRoutingProviderUnavailable)
	}

	var data routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("osrm: failed to decode response: %w: %w", domain.ErrRoutingProviderUnavailable, err)
	}
	// NoRoute, NoSegment, InvalidQuery and friends are answers about the request
	if data.Code != "Ok" || len(data.Routes) == 0 {
		return nil, fmt.Errorf("osrm: %s %s: %w", data.Code, data.Message, domain.ErrNoRoute)
	}

	routes := make([]domain.RouteResult, 0, len(data.Routes))
	for _, r := range data.Routes {
		coords, err := DecodeGeometry(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("osrm: %w: %w", domain.ErrRoutingProviderUnavailable, err)
		}
		routes = append(routes, domain.RouteResult{
			DistanceKm:      r.Distance / 1000,
			DurationMinutes: r.Duration / 60,
			Coordinates:     coords,
		})
	}
	return routes, nil
}

// DecodeGeometry converts an encoded polyline into [lon, lat] vertices
func DecodeGeometry(encoded string) ([]domain.LonLat, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty route geometry")
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	points := make([]domain.LonLat, 0, len(coords))
	for _, c := range coords {
		if !domain.ValidCoordinates(c[0], c[1]) {
			return nil, fmt.Errorf("decoded polyline contains invalid coordinates")
		}
		points = append(points, domain.LonLat{c[1], c[0]})
	}
	return points, nil
}
