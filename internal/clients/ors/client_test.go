package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/backend/internal/domain"
)

const sampleRoute = `{"type":"FeatureCollection","features":[{"type":"Feature",
	"geometry":{"type":"LineString","coordinates":[[77.5946,12.9716],[77.6,12.975],[77.61,12.98]]},
	"properties":{"summary":{"distance":4200,"duration":600}}}]}`

func TestDirections_Success(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, sampleRoute)
	}))
	defer srv.Close()

	client := NewClient("secret-key", srv.URL)
	route, err := client.Directions(context.Background(),
		domain.Coordinates{Lat: 12.9716, Lon: 77.5946},
		domain.Coordinates{Lat: 12.98, Lon: 77.61},
		nil,
	)

	require.NoError(t, err)
	assert.Equal(t, "/v2/directions/driving-car/geojson", gotPath)
	assert.Equal(t, "secret-key", gotAuth)
	assert.NotContains(t, gotBody, "options")

	coords, ok := gotBody["coordinates"].([]interface{})
	require.True(t, ok)
	require.Len(t, coords, 2)
	assert.Equal(t, []interface{}{77.5946, 12.9716}, coords[0])

	assert.InDelta(t, 4.2, route.DistanceKm, 1e-9)
	assert.InDelta(t, 10.0, route.DurationMinutes, 1e-9)
	require.Len(t, route.Coordinates, 3)
	assert.Equal(t, 77.61, route.Coordinates[2].Lon())
	assert.Equal(t, 12.98, route.Coordinates[2].Lat())
	assert.False(t, route.Approximate)
}

func TestDirections_SendsAvoidPolygons(t *testing.T) {
	var gotBody struct {
		Options struct {
			AvoidPolygons MultiPolygon `json:"avoid_polygons"`
		} `json:"options"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, sampleRoute)
	}))
	defer srv.Close()

	avoid := []domain.Coordinates{{Lat: 12.975, Lon: 77.6}, {Lat: 12.978, Lon: 77.605}}
	_, err := NewClient("k", srv.URL).Directions(context.Background(),
		domain.Coordinates{Lat: 12.9716, Lon: 77.5946},
		domain.Coordinates{Lat: 12.98, Lon: 77.61},
		avoid,
	)

	require.NoError(t, err)
	assert.Equal(t, "MultiPolygon", gotBody.Options.AvoidPolygons.Type)
	assert.Len(t, gotBody.Options.AvoidPolygons.Coordinates, 2)
}

func TestDirections_ProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"quota"}`, domain.ErrRoutingProviderUnavailable},
		{"server error", http.StatusInternalServerError, `oops`, domain.ErrRoutingProviderUnavailable},
		{"bad api key", http.StatusForbidden, `{"error":"Access to this API has been disallowed"}`, domain.ErrRoutingProviderUnavailable},
		{"point not routable", http.StatusNotFound, `{"error":{"code":2010,"message":"Could not find routable point"}}`, domain.ErrNoRoute},
		{"bad request", http.StatusBadRequest, `{"error":{"code":2003}}`, domain.ErrNoRoute},
		{"no features", http.StatusOK, `{"features":[]}`, domain.ErrNoRoute},
		{"malformed json", http.StatusOK, `{"features":`, domain.ErrRoutingProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient("k", srv.URL).Directions(context.Background(),
				domain.Coordinates{Lat: 1, Lon: 1}, domain.Coordinates{Lat: 2, Lon: 2}, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAvoidPolygons(t *testing.T) {
	mp := AvoidPolygons([]domain.Coordinates{{Lat: 10, Lon: 20}})

	require.Len(t, mp.Coordinates, 1)
	ring := mp.Coordinates[0][0]
	require.Len(t, ring, 5)
	// closed ring
	assert.Equal(t, ring[0], ring[4])
	assert.InDelta(t, 20-AvoidBoxDegrees, ring[0][0], 1e-12)
	assert.InDelta(t, 10-AvoidBoxDegrees, ring[0][1], 1e-12)
	assert.InDelta(t, 20+AvoidBoxDegrees, ring[2][0], 1e-12)
	assert.InDelta(t, 10+AvoidBoxDegrees, ring[2][1], 1e-12)
}
