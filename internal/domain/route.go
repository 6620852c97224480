package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coordinates is a latitude/longitude pair, encoded in JSON as [lat, lon]
type Coordinates struct {
	Lat float64
	Lon float64
}

// ValidCoordinates checks latitude is in [-90, 90] and longitude in [-180, 180]
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Valid reports whether the coordinates are in range
func (c Coordinates) Valid() bool {
	return ValidCoordinates(c.Lat, c.Lon)
}

// LonLat returns the [lon, lat] pair used by route geometries
func (c Coordinates) LonLat() LonLat {
	return LonLat{c.Lon, c.Lat}
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates must have exactly 2 elements, got %d", len(pair))
	}
	c.Lat, c.Lon = pair[0], pair[1]
	return nil
}

// LonLat is a single route vertex in [lon, lat] order
type LonLat [2]float64

// Lon returns the longitude
func (p LonLat) Lon() float64 { return p[0] }

// Lat returns the latitude
func (p LonLat) Lat() float64 { return p[1] }

// RouteResult is a route computed by a routing provider
type RouteResult struct {
	DistanceKm      float64  `json:"distance_km"`
	DurationMinutes float64  `json:"duration_minutes"`
	Coordinates     []LonLat `json:"coordinates"`
	Approximate     bool     `json:"approximate"`
}

// SameGeometry reports whether both routes follow the identical path
func (r RouteResult) SameGeometry(other RouteResult) bool {
	if len(r.Coordinates) != len(other.Coordinates) {
		return false
	}
	for i := range r.Coordinates {
		if r.Coordinates[i] != other.Coordinates[i] {
			return false
		}
	}
	return true
}

// RecommendationSeverity classifies a route recommendation
type RecommendationSeverity string

const (
	RecommendationSafe        RecommendationSeverity = "safe"
	RecommendationRecommended RecommendationSeverity = "recommended"
	RecommendationWarning     RecommendationSeverity = "warning"
)

// Recommendation is the human-readable advice for a planned route
type Recommendation struct {
	Message          string                 `json:"message"`
	Severity         RecommendationSeverity `json:"severity"`
	AffectedRoads    []string               `json:"affected_roads"`
	TotalPotholes    int                    `json:"total_potholes"`
	WorstSeverity    Severity               `json:"worst_severity,omitempty"`
	DetourDistanceKm float64                `json:"detour_distance_km"`
	DetourTimeMin    float64                `json:"detour_time_min"`
}

// RouteComparisonResult is produced once per planning request and never persisted
type RouteComparisonResult struct {
	StartCoords            Coordinates    `json:"start_coords"`
	EndCoords              Coordinates    `json:"end_coords"`
	OriginalRoute          RouteResult    `json:"original_route"`
	AlternativeRoute       *RouteResult   `json:"alternative_route"`
	BadSegmentsDetected    []BadSegment   `json:"bad_segments_detected"`
	Recommendation         Recommendation `json:"recommendation"`
	HealthScore            int            `json:"health_score"`
	AlternativeHealthScore *int           `json:"alternative_health_score"`
	RoutingStrategy        string         `json:"routing_strategy"`
	Approximate            bool           `json:"approximate"`
}

// LocationInput is a route endpoint given either as free text or as a [lat, lon] pair
type LocationInput struct {
	Text   string
	Coords *Coordinates
}

// IsEmpty reports whether no location was supplied
func (l LocationInput) IsEmpty() bool {
	return l.Coords == nil && l.Text == ""
}

func (l *LocationInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = LocationInput{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*l = LocationInput{Text: text}
		return nil
	}
	var c Coordinates
	if err := c.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("location must be a string or a [lat, lon] array: %w", err)
	}
	*l = LocationInput{Coords: &c}
	return nil
}

// RoutePlanRequest is the body of a route planning request
type RoutePlanRequest struct {
	Start LocationInput `json:"start"`
	End   LocationInput `json:"end"`
}
