package service

import (
	"fmt"

	"github.com/roadwatch/backend/internal/domain"
)

// DetectClusters groups pothole reports for the admin view.
//
// Unlike DetectBadSegments it ignores road names and keeps every cluster, even a
// single report. Reports are linked when at most radius meters apart and each
// connected component is one cluster. A cluster's ID comes from its anchor, the
// earliest member in input order, so it stays stable as later reports join.
func DetectClusters(reports []domain.Report, radius float64) []domain.PotholeCluster {
	if radius <= 0 {
		radius = domain.DefaultClusterRadiusMeters
	}

	potholes := make([]domain.Report, 0, len(reports))
	for _, r := range reports {
		if r.Severity.IsPothole() && r.HasValidLocation() {
			potholes = append(potholes, r)
		}
	}

	groups := clusterByProximity(potholes, radius)
	clusters := make([]domain.PotholeCluster, 0, len(groups))
	for _, members := range groups {
		clusters = append(clusters, buildCluster(members))
	}
	return clusters
}

func buildCluster(members []domain.Report) domain.PotholeCluster {
	anchor := members[0]

	var sumLat, sumLon float64
	minLat, minLon := anchor.Latitude, anchor.Longitude
	maxLat, maxLon := anchor.Latitude, anchor.Longitude
	maxSeverity := domain.SeverityLow
	ids := make([]string, 0, len(members))
	roads := make([]string, 0, len(members))
	areas := make([]string, 0, len(members))

	for _, m := range members {
		sumLat += m.Latitude
		sumLon += m.Longitude
		minLat, maxLat = min(minLat, m.Latitude), max(maxLat, m.Latitude)
		minLon, maxLon = min(minLon, m.Longitude), max(maxLon, m.Longitude)
		if m.Severity.Rank() > maxSeverity.Rank() {
			maxSeverity = m.Severity
		}
		ids = append(ids, m.ID)
		roads = append(roads, m.Road)
		areas = append(areas, m.Area)
	}

	id := clusterID(anchor.Latitude, anchor.Longitude)
	road := dominant(roads, domain.UnknownRoad)
	area := dominant(areas, domain.UnknownArea)

	name := area + " - " + road
	if road == domain.UnknownRoad && area == domain.UnknownArea {
		name = "Cluster #" + formatCoord(anchor.Latitude)
	}

	return domain.PotholeCluster{
		ID:           id,
		FriendlyName: name,
		CenterLat:    sumLat / float64(len(members)),
		CenterLon:    sumLon / float64(len(members)),
		Bounds: [2]domain.Coordinates{
			{Lat: minLat, Lon: minLon},
			{Lat: maxLat, Lon: maxLon},
		},
		MaxSeverity: maxSeverity,
		ReportCount: len(members),
		ReportIDs:   ids,
		Road:        road,
		Area:        area,
		Status:      domain.ClusterOpen,
	}
}

func clusterID(lat, lon float64) string {
	return fmt.Sprintf("%s_%s", formatCoord(lat), formatCoord(lon))
}

// dominant returns the most frequent known value; ties go to the value seen first
func dominant(values []string, unknown string) string {
	var order []string
	counts := make(map[string]int)
	for _, v := range values {
		if v == "" || v == unknown {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := unknown, 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// summarizeReports counts every report by severity
func summarizeReports(reports []domain.Report) domain.ClusterSummary {
	breakdown := ComputeStatistics(reports, nil).SeverityBreakdown
	return domain.ClusterSummary{
		Total:  len(reports),
		High:   breakdown[domain.SeverityHigh],
		Medium: breakdown[domain.SeverityMedium],
		Low:    breakdown[domain.SeverityLow],
		None:   breakdown[domain.SeverityNone],
	}
}
