package domain

import (
	"context"
	"strings"
	"time"
)

// DefaultClusterRadiusMeters links pothole reports into one admin cluster
const DefaultClusterRadiusMeters = 100.0

// ClusterStatus is the repair state an admin assigns to a cluster
type ClusterStatus string

const (
	ClusterOpen       ClusterStatus = "Open"
	ClusterInProgress ClusterStatus = "In Progress"
	ClusterFixed      ClusterStatus = "Fixed"
)

// ParseClusterStatus accepts only the exact status names
func ParseClusterStatus(raw string) (ClusterStatus, bool) {
	switch s := ClusterStatus(strings.TrimSpace(raw)); s {
	case ClusterOpen, ClusterInProgress, ClusterFixed:
		return s, true
	}
	return "", false
}

// PotholeCluster groups nearby pothole reports regardless of road.
// Its ID is derived from the anchor report, the earliest member in store order.
type PotholeCluster struct {
	ID           string         `json:"id"`
	FriendlyName string         `json:"friendly_name"`
	CenterLat    float64        `json:"center_lat"`
	CenterLon    float64        `json:"center_lon"`
	Bounds       [2]Coordinates `json:"bounds"`
	MaxSeverity  Severity       `json:"max_severity"`
	ReportCount  int            `json:"report_count"`
	ReportIDs    []string       `json:"report_ids"`
	Road         string         `json:"road"`
	Area         string         `json:"area"`
	Status       ClusterStatus  `json:"status"`
	UpdatedAt    *time.Time     `json:"status_updated_at,omitempty"`
}

// ClusterStatusRecord is the persisted status of one cluster
type ClusterStatusRecord struct {
	ClusterID string        `json:"cluster_id"`
	Status    ClusterStatus `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ClusterStatusUpdate is the body of an admin status change
type ClusterStatusUpdate struct {
	ClusterID string `json:"cluster_id" form:"cluster_id" validate:"required,max=128"`
	Status    string `json:"status" form:"status" validate:"required"`
}

// ClusterSummary counts reports per severity. Anything that is not a pothole counts as None.
type ClusterSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	None   int `json:"none"`
}

// ClusterOverview is returned by the admin clusters endpoint
type ClusterOverview struct {
	Summary  ClusterSummary   `json:"summary"`
	Clusters []PotholeCluster `json:"clusters"`
}

// ClusterStatusRepository persists admin cluster statuses
type ClusterStatusRepository interface {
	// ListClusterStatuses returns every stored status
	ListClusterStatuses(ctx context.Context) ([]ClusterStatusRecord, error)

	// SaveClusterStatus creates or replaces the status of one cluster
	SaveClusterStatus(ctx context.Context, record ClusterStatusRecord) error
}
