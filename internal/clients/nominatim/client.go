package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/roadwatch/backend/internal/domain"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim instance
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

const userAgent = "Pothole-Detection-System-Routing"

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements domain.Geocoder against the Nominatim API
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a Nominatim client
func NewClient(baseURL string) *Client {
	return NewClientWithHTTPDoer(baseURL, &http.Client{Timeout: 10 * time.Second})
}

// NewClientWithHTTPDoer creates a client with a custom transport
func NewClientWithHTTPDoer(baseURL string, doer HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, httpClient: doer}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road          string `json:"road"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		City          string `json:"city"`
	} `json:"address"`
	Error string `json:"error"`
}

// Geocode resolves a free-text address to the best matching coordinates
func (c *Client) Geocode(ctx context.Context, query string) (domain.Coordinates, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return domain.Coordinates{}, err
	}
	if len(results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("nominatim: %q: %w", query, domain.ErrLocationNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: bad latitude %q: %w", results[0].Lat, domain.ErrRoutingProviderUnavailable)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim: bad longitude %q: %w", results[0].Lon, domain.ErrRoutingProviderUnavailable)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}

// ReverseGeocode returns the road and area at a point
func (c *Client) ReverseGeocode(ctx context.Context, point domain.Coordinates) (domain.Address, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(point.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(point.Lon, 'f', -1, 64))
	params.Set("format", "json")

	var result reverseResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return domain.Address{}, err
	}
	if result.Error != "" {
		return domain.Address{}, fmt.Errorf("nominatim: reverse %v: %s: %w", point, result.Error, domain.ErrLocationNotFound)
	}

	addr := domain.Address{
		Road:        result.Address.Road,
		DisplayName: result.DisplayName,
	}
	switch {
	case result.Address.Suburb != "":
		addr.Area = result.Address.Suburb
	case result.Address.Neighbourhood != "":
		addr.Area = result.Address.Neighbourhood
	default:
		addr.Area = result.Address.City
	}
	if addr.Road == "" {
		addr.Road = domain.UnknownRoad
	}
	if addr.Area == "" {
		addr.Area = domain.UnknownArea
	}
	return addr, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("nominatim: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim: request failed: %w: %w", domain.ErrRoutingProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nominatim: status %d: %s: %w", resp.StatusCode, string(body), domain.ErrRoutingProviderUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nominatim: failed to decode response: %w: %w", domain.ErrRoutingProviderUnavailable, err)
	}
	return nil
}
