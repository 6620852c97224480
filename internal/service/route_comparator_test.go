package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/backend/internal/domain"
)

func TestParseCoordinatePair(t *testing.T) {
	tests := []struct {
		input   string
		matched bool
		wantErr bool
		want    domain.Coordinates
	}{
		{"12.9716, 77.5946", true, false, domain.Coordinates{Lat: 12.9716, Lon: 77.5946}},
		{"-33.8688,151.2093", true, false, domain.Coordinates{Lat: -33.8688, Lon: 151.2093}},
		{"  12,77  ", true, false, domain.Coordinates{Lat: 12, Lon: 77}},
		{"95.0, 10.0", true, true, domain.Coordinates{}},
		{"MG Road, Bangalore", false, false, domain.Coordinates{}},
		{"12.9716 77.5946", false, false, domain.Coordinates{}},
		{"12.9716, 77.5946, 3", false, false, domain.Coordinates{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, matched, err := ParseCoordinatePair(tt.input)
			assert.Equal(t, tt.matched, matched)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func segmentAt(id, road string, lat, lon float64, count int, sev domain.Severity) domain.BadSegment {
	return domain.BadSegment{
		SegmentID:    id,
		RoadName:     road,
		CenterLat:    lat,
		CenterLon:    lon,
		PotholeCount: count,
		MaxSeverity:  sev,
	}
}

func lineRoute(points ...[2]float64) domain.RouteResult {
	coords := make([]domain.LonLat, 0, len(points))
	for _, p := range points {
		coords = append(coords, domain.LonLat{p[1], p[0]})
	}
	return domain.RouteResult{DistanceKm: 5, DurationMinutes: 10, Coordinates: coords}
}

func TestFindIntersections_OrderedAlongRoute(t *testing.T) {
	route := lineRoute([2]float64{12.90, 77.60}, [2]float64{12.91, 77.60}, [2]float64{12.92, 77.60})
	segments := []domain.BadSegment{
		segmentAt("far", "X", 13.5, 78.0, 3, domain.SeverityLow),
		segmentAt("last", "B", 12.92, 77.6002, 3, domain.SeverityLow),
		segmentAt("first", "A", 12.9001, 77.60, 3, domain.SeverityLow),
	}

	detected := FindIntersections(route, segments, 50)

	require.Len(t, detected, 2)
	assert.Equal(t, "first", detected[0].SegmentID)
	assert.Equal(t, "last", detected[1].SegmentID)
}

func TestFindIntersections_RadiusBoundary(t *testing.T) {
	route := lineRoute([2]float64{12.90, 77.60})
	near := segmentAt("near", "A", 12.90+metersNorth(45), 77.60, 3, domain.SeverityLow)
	far := segmentAt("far", "A", 12.90+metersNorth(60), 77.60, 3, domain.SeverityLow)

	detected := FindIntersections(route, []domain.BadSegment{near, far}, 50)

	require.Len(t, detected, 1)
	assert.Equal(t, "near", detected[0].SegmentID)
}

func TestFindIntersections_BetweenSparseVertices(t *testing.T) {
	// vertices ~11 km apart with the segment on the edge between them
	route := lineRoute([2]float64{12.90, 77.60}, [2]float64{13.00, 77.60})
	onEdge := segmentAt("on", "NH 44", 12.95, 77.60, 3, domain.SeverityLow)
	offEdge := segmentAt("off", "NH 44", 12.95, 77.601, 3, domain.SeverityLow)

	detected := FindIntersections(route, []domain.BadSegment{offEdge, onEdge}, 50)

	require.Len(t, detected, 1)
	assert.Equal(t, "on", detected[0].SegmentID)
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 100, HealthScore(nil))
	assert.Equal(t, 65, HealthScore([]domain.BadSegment{segmentAt("a", "A", 0, 0, 7, domain.SeverityHigh)}))
	assert.Equal(t, 82, HealthScore([]domain.BadSegment{
		segmentAt("a", "A", 0, 0, 3, domain.SeverityMedium),
		segmentAt("b", "B", 0, 0, 9, domain.SeverityLow),
	}))
	assert.Equal(t, 0, HealthScore([]domain.BadSegment{segmentAt("a", "A", 0, 0, 21, domain.SeverityHigh)}))
}

func TestBuildRecommendation(t *testing.T) {
	original := domain.RouteResult{DistanceKm: 5, DurationMinutes: 10}
	alternative := &domain.RouteResult{DistanceKm: 6.2, DurationMinutes: 14}

	t.Run("safe when nothing detected", func(t *testing.T) {
		rec := BuildRecommendation(nil, original, nil)
		assert.Equal(t, domain.RecommendationSafe, rec.Severity)
		assert.Empty(t, rec.AffectedRoads)
	})

	t.Run("high severity is a warning even with an alternative", func(t *testing.T) {
		rec := BuildRecommendation([]domain.BadSegment{
			segmentAt("a", "MG Road", 0, 0, 4, domain.SeverityHigh),
		}, original, alternative)

		assert.Equal(t, domain.RecommendationWarning, rec.Severity)
		assert.Equal(t, []string{"MG Road"}, rec.AffectedRoads)
		assert.Equal(t, 4, rec.TotalPotholes)
		assert.Equal(t, domain.SeverityHigh, rec.WorstSeverity)
		assert.InDelta(t, 1.2, rec.DetourDistanceKm, 1e-9)
		assert.InDelta(t, 4.0, rec.DetourTimeMin, 1e-9)
		assert.Contains(t, rec.Message, "MG Road has a series of 4 potholes (High severity)")
		assert.Contains(t, rec.Message, "adds 1.2 km")
	})

	t.Run("alternative is recommended below high", func(t *testing.T) {
		rec := BuildRecommendation([]domain.BadSegment{
			segmentAt("a", "MG Road", 0, 0, 3, domain.SeverityMedium),
			segmentAt("b", "Brigade Road", 0, 0, 3, domain.SeverityLow),
			segmentAt("c", "MG Road", 0, 0, 3, domain.SeverityLow),
		}, original, alternative)

		assert.Equal(t, domain.RecommendationRecommended, rec.Severity)
		assert.Equal(t, []string{"MG Road", "Brigade Road"}, rec.AffectedRoads)
		assert.Contains(t, rec.Message, "MG Road and Brigade Road have a series of 9 potholes (Medium severity)")
	})

	t.Run("no alternative is a warning", func(t *testing.T) {
		rec := BuildRecommendation([]domain.BadSegment{
			segmentAt("a", "A", 0, 0, 3, domain.SeverityLow),
			segmentAt("b", "B", 0, 0, 3, domain.SeverityLow),
			segmentAt("c", "C", 0, 0, 3, domain.SeverityLow),
		}, original, nil)

		assert.Equal(t, domain.RecommendationWarning, rec.Severity)
		assert.Contains(t, rec.Message, "3 roads have")
		assert.Contains(t, rec.Message, "Proceed with caution")
	})
}

func TestCompareRoutes(t *testing.T) {
	start := domain.Coordinates{Lat: 12.90, Lon: 77.60}
	end := domain.Coordinates{Lat: 12.92, Lon: 77.60}
	original := lineRoute([2]float64{12.90, 77.60}, [2]float64{12.91, 77.60}, [2]float64{12.92, 77.60})
	high := segmentAt("seg", "MG Road", 12.91, 77.60, 7, domain.SeverityHigh)

	t.Run("clear route drops the alternative", func(t *testing.T) {
		alt := lineRoute([2]float64{12.90, 77.60}, [2]float64{12.92, 77.60})
		result := CompareRoutes(start, end, original, &alt, nil, 50)

		assert.Nil(t, result.AlternativeRoute)
		assert.Nil(t, result.AlternativeHealthScore)
		assert.Empty(t, result.BadSegmentsDetected)
		assert.Equal(t, 100, result.HealthScore)
		assert.Equal(t, domain.RecommendationSafe, result.Recommendation.Severity)
	})

	t.Run("identical alternative is absent", func(t *testing.T) {
		same := original
		result := CompareRoutes(start, end, original, &same, []domain.BadSegment{high}, 50)

		assert.Nil(t, result.AlternativeRoute)
		assert.Equal(t, 65, result.HealthScore)
		assert.Equal(t, domain.RecommendationWarning, result.Recommendation.Severity)
	})

	t.Run("alternative through the same segment is absent", func(t *testing.T) {
		medium := segmentAt("seg", "MG Road", 12.91, 77.60, 3, domain.SeverityMedium)
		alt := lineRoute([2]float64{12.90, 77.60}, [2]float64{12.905, 77.601}, [2]float64{12.91, 77.60}, [2]float64{12.92, 77.60})
		result := CompareRoutes(start, end, original, &alt, []domain.BadSegment{medium}, 50)

		assert.Nil(t, result.AlternativeRoute)
		assert.Nil(t, result.AlternativeHealthScore)
		assert.Equal(t, 91, result.HealthScore)
		assert.Equal(t, domain.RecommendationWarning, result.Recommendation.Severity)
		assert.NotContains(t, result.Recommendation.Message, "avoids damaged sections")
	})

	t.Run("distinct alternative is scored", func(t *testing.T) {
		alt := lineRoute([2]float64{12.90, 77.60}, [2]float64{12.91, 77.62}, [2]float64{12.92, 77.60})
		alt.Approximate = true
		result := CompareRoutes(start, end, original, &alt, []domain.BadSegment{high}, 50)

		require.NotNil(t, result.AlternativeRoute)
		require.NotNil(t, result.AlternativeHealthScore)
		assert.Equal(t, 100, *result.AlternativeHealthScore)
		assert.True(t, result.Approximate)
	})
}
