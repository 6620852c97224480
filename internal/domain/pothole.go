package domain

import (
	"strings"
	"time"
)

// Severity is the ordinal pothole danger rating
type Severity string

const (
	SeverityNone   Severity = "None" // upload processed, nothing detected
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// UnknownRoad is used when a report has no road name
const UnknownRoad = "Unknown Road"

// UnknownArea is used when a report has no area name
const UnknownArea = "Unknown Area"

// Rank orders severities High > Medium > Low > None
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// IsPothole reports whether the severity describes an actual pothole
func (s Severity) IsPothole() bool {
	return s.Rank() > 0
}

// Weight is the health score penalty per pothole
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 5
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity accepts severities case-insensitively
func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return SeverityHigh, true
	case "medium":
		return SeverityMedium, true
	case "low":
		return SeverityLow, true
	case "none", "":
		return SeverityNone, true
	}
	return SeverityNone, false
}

// DetectionsFor is the detection count recorded for manual reports
func DetectionsFor(s Severity) int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Report is a single pothole report. Reports are never mutated after creation.
type Report struct {
	ID         string    `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Road       string    `json:"road"`
	Area       string    `json:"area"`
	Severity   Severity  `json:"severity"`
	Detections int       `json:"detections"`
	Source     string    `json:"source"`
	Notes      string    `json:"notes,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// RoadName returns the report road or UnknownRoad
func (r Report) RoadName() string {
	if strings.TrimSpace(r.Road) == "" {
		return UnknownRoad
	}
	return r.Road
}

// HasValidLocation checks the report coordinates are in range and not the zero value
func (r Report) HasValidLocation() bool {
	if r.Latitude == 0 && r.Longitude == 0 {
		return false
	}
	return ValidCoordinates(r.Latitude, r.Longitude)
}

// PotholeLocation is the map marker projection of a report
type PotholeLocation struct {
	ID         string    `json:"id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Severity   Severity  `json:"severity"`
	Road       string    `json:"road"`
	Area       string    `json:"area"`
	Detections int       `json:"detections"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReportRequest is the body of a manual admin report
type NewReportRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
	Severity  string  `json:"severity" validate:"required,oneof=Low Medium High"`
	Road      string  `json:"road" validate:"omitempty,max=200"`
	Notes     string  `json:"notes" validate:"omitempty,max=1000"`
}
