package domain

import (
	"context"
)

// ReportRepository defines the interface for pothole report persistence.
// The domain defines the interface; storage backends implement it.
type ReportRepository interface {
	// ListReports returns every stored report in a stable store order
	ListReports(ctx context.Context) ([]Report, error)

	// SaveReport persists a new report and returns it with its assigned ID
	SaveReport(ctx context.Context, report Report) (Report, error)

	// Health checks store connectivity
	Health(ctx context.Context) error
}

// SegmentCache holds the last computed set of bad segments
type SegmentCache interface {
	// Get returns the cached segments and whether a fresh entry exists
	Get(ctx context.Context) ([]BadSegment, bool, error)

	// Set replaces the cached segments. Concurrent writers race, last write wins.
	Set(ctx context.Context, segments []BadSegment) error

	// Invalidate drops the cached segments
	Invalidate(ctx context.Context) error
}

// Address is the result of reverse geocoding
type Address struct {
	Road        string `json:"road"`
	Area        string `json:"area"`
	DisplayName string `json:"full_address"`
}

// Geocoder resolves free-text addresses to coordinates and back
type Geocoder interface {
	// Geocode returns ErrLocationNotFound when the query has no match
	Geocode(ctx context.Context, query string) (Coordinates, error)

	// ReverseGeocode returns the road and area at the given point
	ReverseGeocode(ctx context.Context, point Coordinates) (Address, error)
}
