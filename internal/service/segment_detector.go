package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roadwatch/backend/internal/domain"
	"github.com/roadwatch/backend/pkg/utils"
)

// DetectBadSegments groups pothole reports into bad segments.
//
// Reports are partitioned by road. Within a road, two reports are linked when they
// are at most DistanceThresholdMeters apart, and each connected component of that
// graph is a candidate cluster (single-linkage). Candidates with fewer than
// MinPotholes members are dropped.
//
// Output order depends only on input order: roads by first appearance, clusters by
// the input position of their earliest member, members in input order.
func DetectBadSegments(reports []domain.Report, params domain.DetectionParams, now time.Time) []domain.BadSegment {
	if params.DistanceThresholdMeters <= 0 {
		params.DistanceThresholdMeters = domain.DefaultDistanceThresholdMeters
	}
	if params.MinPotholes <= 0 {
		params.MinPotholes = domain.DefaultMinPotholes
	}

	var roads []string
	byRoad := make(map[string][]domain.Report)
	for _, r := range reports {
		if !r.Severity.IsPothole() || !r.HasValidLocation() {
			continue
		}
		road := r.RoadName()
		if _, seen := byRoad[road]; !seen {
			roads = append(roads, road)
		}
		byRoad[road] = append(byRoad[road], r)
	}

	segments := make([]domain.BadSegment, 0)
	for _, road := range roads {
		members := byRoad[road]
		if len(members) < params.MinPotholes {
			continue
		}
		for _, cluster := range clusterByProximity(members, params.DistanceThresholdMeters) {
			if len(cluster) < params.MinPotholes {
				continue
			}
			segments = append(segments, buildSegment(road, cluster, now))
		}
	}
	return segments
}

// clusterByProximity returns the connected components of the distance-threshold graph
func clusterByProximity(reports []domain.Report, threshold float64) [][]domain.Report {
	uf := newUnionFind(len(reports))
	for i := 0; i < len(reports); i++ {
		for j := i + 1; j < len(reports); j++ {
			d := utils.DistanceMeters(
				reports[i].Latitude, reports[i].Longitude,
				reports[j].Latitude, reports[j].Longitude,
			)
			if d <= threshold {
				uf.union(i, j)
			}
		}
	}

	var order []int
	groups := make(map[int][]domain.Report)
	for i, r := range reports {
		root := uf.find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], r)
	}

	clusters := make([][]domain.Report, 0, len(order))
	for _, root := range order {
		clusters = append(clusters, groups[root])
	}
	return clusters
}

func buildSegment(road string, members []domain.Report, now time.Time) domain.BadSegment {
	var sumLat, sumLon float64
	maxSeverity := domain.SeverityLow
	ids := make([]string, 0, len(members))
	for _, m := range members {
		sumLat += m.Latitude
		sumLon += m.Longitude
		if m.Severity.Rank() > maxSeverity.Rank() {
			maxSeverity = m.Severity
		}
		ids = append(ids, m.ID)
	}
	centerLat := sumLat / float64(len(members))
	centerLon := sumLon / float64(len(members))

	// start and end follow the (lat, lon) ordering used to approximate road order
	ordered := make([]domain.Report, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Latitude != ordered[j].Latitude {
			return ordered[i].Latitude < ordered[j].Latitude
		}
		return ordered[i].Longitude < ordered[j].Longitude
	})
	first, last := ordered[0], ordered[len(ordered)-1]

	area := members[0].Area
	if area == "" {
		area = domain.UnknownArea
	}

	return domain.BadSegment{
		SegmentID:    segmentID(road, centerLat, centerLon),
		RoadName:     road,
		StartLat:     first.Latitude,
		StartLon:     first.Longitude,
		EndLat:       last.Latitude,
		EndLon:       last.Longitude,
		CenterLat:    centerLat,
		CenterLon:    centerLon,
		PotholeCount: len(members),
		MaxSeverity:  maxSeverity,
		Area:         area,
		PotholeIDs:   ids,
		CreatedAt:    now,
	}
}

func segmentID(road string, lat, lon float64) string {
	return fmt.Sprintf("%s_%s_%s",
		strings.ReplaceAll(road, " ", "_"),
		formatCoord(utils.RoundTo(lat, 5)),
		formatCoord(utils.RoundTo(lon, 5)),
	)
}

func formatCoord(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.5f", v), "0"), ".")
}

// ComputeStatistics summarizes the report set and the segments detected from it
func ComputeStatistics(reports []domain.Report, segments []domain.BadSegment) domain.SegmentStatistics {
	stats := domain.SegmentStatistics{
		TotalReports: len(reports),
		SeverityBreakdown: map[domain.Severity]int{
			domain.SeverityHigh:   0,
			domain.SeverityMedium: 0,
			domain.SeverityLow:    0,
			domain.SeverityNone:   0,
		},
		BadRoadSegments: len(segments),
	}

	for _, r := range reports {
		if r.Severity.IsPothole() {
			stats.SeverityBreakdown[r.Severity]++
		} else {
			stats.SeverityBreakdown[domain.SeverityNone]++
		}
	}
	stats.NoPotholeDetections = stats.SeverityBreakdown[domain.SeverityNone]
	stats.PotholeDetections = stats.TotalReports - stats.NoPotholeDetections

	roads := make(map[string]struct{})
	for _, s := range segments {
		roads[s.RoadName] = struct{}{}
		stats.PotholesInSeries += s.PotholeCount
	}
	stats.RoadsWithSeries = len(roads)
	stats.IsolatedPotholes = stats.PotholeDetections - stats.PotholesInSeries

	return stats
}

// unionFind is a disjoint-set forest with path compression.
// Roots are always the smallest index of their set.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
