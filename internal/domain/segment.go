package domain

import "time"

// Detection defaults
const (
	DefaultDistanceThresholdMeters = 200.0
	DefaultMinPotholes             = 3
)

// BadSegment is a cluster of pothole reports on one road.
// It is a projection of the report set and never a source of truth.
type BadSegment struct {
	SegmentID    string    `json:"segment_id"`
	RoadName     string    `json:"road_name"`
	StartLat     float64   `json:"start_lat"`
	StartLon     float64   `json:"start_lon"`
	EndLat       float64   `json:"end_lat"`
	EndLon       float64   `json:"end_lon"`
	CenterLat    float64   `json:"center_lat"`
	CenterLon    float64   `json:"center_lon"`
	PotholeCount int       `json:"pothole_count"`
	MaxSeverity  Severity  `json:"max_severity"`
	Area         string    `json:"area"`
	PotholeIDs   []string  `json:"pothole_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// Center returns the segment centroid
func (s BadSegment) Center() Coordinates {
	return Coordinates{Lat: s.CenterLat, Lon: s.CenterLon}
}

// DetectionParams controls bad-segment detection
type DetectionParams struct {
	DistanceThresholdMeters float64
	MinPotholes             int
}

// DefaultDetectionParams returns the default detection parameters
func DefaultDetectionParams() DetectionParams {
	return DetectionParams{
		DistanceThresholdMeters: DefaultDistanceThresholdMeters,
		MinPotholes:             DefaultMinPotholes,
	}
}

// SegmentStatistics summarizes reports and detected segments
type SegmentStatistics struct {
	TotalReports        int              `json:"total_reports"`
	PotholeDetections   int              `json:"pothole_detections"`
	NoPotholeDetections int              `json:"no_pothole_detections"`
	SeverityBreakdown   map[Severity]int `json:"severity_breakdown"`
	BadRoadSegments     int              `json:"bad_road_segments"`
	RoadsWithSeries     int              `json:"roads_with_series"`
	PotholesInSeries    int              `json:"potholes_in_series"`
	IsolatedPotholes    int              `json:"isolated_potholes"`
}

// BadSegmentsResponse is returned by the bad segments endpoint
type BadSegmentsResponse struct {
	BadSegments   []BadSegment      `json:"bad_segments"`
	Statistics    SegmentStatistics `json:"statistics"`
	TotalSegments int               `json:"total_segments"`
}
