package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roadwatch/backend/internal/domain"
	"github.com/roadwatch/backend/pkg/utils"
)

// DefaultIntersectionRadiusMeters is how close a route path must pass to a segment centroid
const DefaultIntersectionRadiusMeters = 50.0

var coordinatePairPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?),\s*(-?\d+(?:\.\d+)?)$`)

// ParseCoordinatePair parses "lat, lon" strings. The boolean is false when the text is
// not a numeric pair and should be geocoded instead. A numeric pair that is out of
// range still reports true, together with an error wrapping domain.ErrInvalidInput,
// so callers must not fall back to geocoding it.
func ParseCoordinatePair(text string) (domain.Coordinates, bool, error) {
	m := coordinatePairPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return domain.Coordinates{}, false, nil
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.Coordinates{}, true, fmt.Errorf("%w: bad latitude %q", domain.ErrInvalidInput, m[1])
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return domain.Coordinates{}, true, fmt.Errorf("%w: bad longitude %q", domain.ErrInvalidInput, m[2])
	}

	c := domain.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return domain.Coordinates{}, true, fmt.Errorf("%w: coordinates out of range: %s", domain.ErrInvalidInput, text)
	}
	return c, true, nil
}

// FindIntersections returns the segments whose centroid lies within radius meters of
// the route path, ordered by the first path edge that reaches them. Distances are
// measured to each edge, so sparse geometries still detect segments between vertices.
func FindIntersections(route domain.RouteResult, segments []domain.BadSegment, radius float64) []domain.BadSegment {
	if radius <= 0 {
		radius = DefaultIntersectionRadiusMeters
	}

	type hit struct {
		edge    int
		segment domain.BadSegment
	}
	var hits []hit

	for _, seg := range segments {
		if i := firstEdgeWithin(route.Coordinates, seg.CenterLat, seg.CenterLon, radius); i >= 0 {
			hits = append(hits, hit{edge: i, segment: seg})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].edge < hits[j].edge })

	detected := make([]domain.BadSegment, 0, len(hits))
	for _, h := range hits {
		detected = append(detected, h.segment)
	}
	return detected
}

// firstEdgeWithin returns the index of the first path edge within radius of the
// point, or -1. A single-vertex path is its own edge.
func firstEdgeWithin(path []domain.LonLat, lat, lon, radius float64) int {
	switch len(path) {
	case 0:
		return -1
	case 1:
		if utils.DistanceMeters(path[0].Lat(), path[0].Lon(), lat, lon) <= radius {
			return 0
		}
		return -1
	}
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		if utils.DistanceToSegmentMeters(lat, lon, a.Lat(), a.Lon(), b.Lat(), b.Lon()) <= radius {
			return i - 1
		}
	}
	return -1
}

// HealthScore penalizes a route for the bad segments it crosses.
// Score is 100 minus count x weight per segment, clamped to [0, 100].
func HealthScore(detected []domain.BadSegment) int {
	return utils.ClampInt(100-penalty(detected), 0, 100)
}

func penalty(detected []domain.BadSegment) int {
	total := 0
	for _, seg := range detected {
		total += seg.PotholeCount * seg.MaxSeverity.Weight()
	}
	return total
}

// AffectedRoads returns distinct road names in order of first appearance
func AffectedRoads(detected []domain.BadSegment) []string {
	seen := make(map[string]struct{})
	roads := make([]string, 0)
	for _, seg := range detected {
		if _, ok := seen[seg.RoadName]; ok {
			continue
		}
		seen[seg.RoadName] = struct{}{}
		roads = append(roads, seg.RoadName)
	}
	return roads
}

// BuildRecommendation constructs the advice shown with a planned route.
// alternative must be nil unless it differs from original.
func BuildRecommendation(detected []domain.BadSegment, original domain.RouteResult, alternative *domain.RouteResult) domain.Recommendation {
	if len(detected) == 0 {
		return domain.Recommendation{
			Message:       "Route is clear! No pothole series detected along this route.",
			Severity:      domain.RecommendationSafe,
			AffectedRoads: []string{},
		}
	}

	total := 0
	worst := domain.SeverityLow
	for _, seg := range detected {
		total += seg.PotholeCount
		if seg.MaxSeverity.Rank() > worst.Rank() {
			worst = seg.MaxSeverity
		}
	}
	roads := AffectedRoads(detected)

	parts := []string{
		fmt.Sprintf("Warning: %s a series of %d potholes (%s severity).", roadsPhrase(roads), total, worst),
	}

	rec := domain.Recommendation{
		AffectedRoads: roads,
		TotalPotholes: total,
		WorstSeverity: worst,
	}

	if alternative != nil {
		rec.DetourDistanceKm = utils.RoundTo(alternative.DistanceKm-original.DistanceKm, 2)
		rec.DetourTimeMin = utils.RoundTo(alternative.DurationMinutes-original.DurationMinutes, 1)

		if rec.DetourDistanceKm > 0 {
			parts = append(parts, fmt.Sprintf(
				"Alternative route adds %.1f km and ~%.0f minutes but avoids damaged sections.",
				rec.DetourDistanceKm, rec.DetourTimeMin,
			))
		} else {
			parts = append(parts, "Alternative route avoids damaged sections with no added distance.")
		}
		parts = append(parts, "Recommended: take the alternative route for smoother travel.")
	} else {
		parts = append(parts, "No alternative route avoids these sections. Proceed with caution.")
	}

	switch {
	case worst == domain.SeverityHigh:
		rec.Severity = domain.RecommendationWarning
	case alternative != nil:
		rec.Severity = domain.RecommendationRecommended
	default:
		rec.Severity = domain.RecommendationWarning
	}

	rec.Message = strings.Join(parts, " ")
	return rec
}

func roadsPhrase(roads []string) string {
	switch len(roads) {
	case 1:
		return roads[0] + " has"
	case 2:
		return roads[0] + " and " + roads[1] + " have"
	default:
		return fmt.Sprintf("%d roads have", len(roads))
	}
}

// CompareRoutes assembles the comparison result for a planned route.
// An alternative is discarded when it has the same geometry as the original or
// crosses bad segments carrying at least the original's penalty.
func CompareRoutes(start, end domain.Coordinates, original domain.RouteResult, alternative *domain.RouteResult, segments []domain.BadSegment, radius float64) domain.RouteComparisonResult {
	detected := FindIntersections(original, segments, radius)

	var altDetected []domain.BadSegment
	if len(detected) == 0 || (alternative != nil && alternative.SameGeometry(original)) {
		alternative = nil
	}
	if alternative != nil {
		altDetected = FindIntersections(*alternative, segments, radius)
		if penalty(altDetected) >= penalty(detected) {
			alternative = nil
		}
	}

	result := domain.RouteComparisonResult{
		StartCoords:         start,
		EndCoords:           end,
		OriginalRoute:       original,
		AlternativeRoute:    alternative,
		BadSegmentsDetected: detected,
		Recommendation:      BuildRecommendation(detected, original, alternative),
		HealthScore:         HealthScore(detected),
		Approximate:         original.Approximate,
	}

	if alternative != nil {
		score := HealthScore(altDetected)
		result.AlternativeHealthScore = &score
		result.Approximate = result.Approximate || alternative.Approximate
	}
	return result
}
