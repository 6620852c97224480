package service

import (
	"context"
	"fmt"
	"math"

	"github.com/roadwatch/backend/internal/domain"
	"github.com/roadwatch/backend/pkg/utils"
)

// Strategy names reported in route plans
const (
	StrategyORS          = "ors"
	StrategyOSRM         = "osrm"
	StrategyStraightLine = "mock"
)

// RoutingStrategy computes routes between two points. Provider failures are
// reported as domain.ErrRoutingProviderUnavailable, requests the provider cannot
// route as domain.ErrNoRoute.
type RoutingStrategy interface {
	Name() string

	// Route returns the primary route
	Route(ctx context.Context, start, end domain.Coordinates) (domain.RouteResult, error)

	// Alternative returns a route that tries to avoid the given segments, or nil
	// when the strategy cannot offer one distinct from original.
	Alternative(ctx context.Context, start, end domain.Coordinates, original domain.RouteResult, avoid []domain.BadSegment) (*domain.RouteResult, error)
}

// DirectionsClient is implemented by the OpenRouteService client
type DirectionsClient interface {
	Directions(ctx context.Context, start, end domain.Coordinates, avoid []domain.Coordinates) (domain.RouteResult, error)
}

// AlternativesClient is implemented by the OSRM client
type AlternativesClient interface {
	Routes(ctx context.Context, start, end domain.Coordinates, alternatives bool) ([]domain.RouteResult, error)
}

// ORSStrategy routes through OpenRouteService and avoids segments with polygons
type ORSStrategy struct {
	client DirectionsClient
}

// NewORSStrategy creates a strategy backed by OpenRouteService
func NewORSStrategy(client DirectionsClient) *ORSStrategy {
	return &ORSStrategy{client: client}
}

func (s *ORSStrategy) Name() string { return StrategyORS }

func (s *ORSStrategy) Route(ctx context.Context, start, end domain.Coordinates) (domain.RouteResult, error) {
	return s.client.Directions(ctx, start, end, nil)
}

func (s *ORSStrategy) Alternative(ctx context.Context, start, end domain.Coordinates, original domain.RouteResult, avoid []domain.BadSegment) (*domain.RouteResult, error) {
	if len(avoid) == 0 {
		return nil, nil
	}
	points := make([]domain.Coordinates, 0, len(avoid))
	for _, seg := range avoid {
		points = append(points, seg.Center())
	}

	route, err := s.client.Directions(ctx, start, end, points)
	if err != nil {
		return nil, err
	}
	if route.SameGeometry(original) {
		return nil, nil
	}
	return &route, nil
}

// OSRMStrategy routes through OSRM. OSRM has no avoid areas, so the alternative
// is the provider alternative that passes the fewest avoided segments. An
// alternative that still passes all of them is not offered.
type OSRMStrategy struct {
	client AlternativesClient
	radius float64
}

// NewOSRMStrategy creates a strategy backed by OSRM
func NewOSRMStrategy(client AlternativesClient, intersectionRadius float64) *OSRMStrategy {
	return &OSRMStrategy{client: client, radius: intersectionRadius}
}

func (s *OSRMStrategy) Name() string { return StrategyOSRM }

func (s *OSRMStrategy) Route(ctx context.Context, start, end domain.Coordinates) (domain.RouteResult, error) {
	routes, err := s.client.Routes(ctx, start, end, false)
	if err != nil {
		return domain.RouteResult{}, err
	}
	if len(routes) == 0 {
		return domain.RouteResult{}, fmt.Errorf("osrm strategy: empty route list: %w", domain.ErrNoRoute)
	}
	return routes[0], nil
}

func (s *OSRMStrategy) Alternative(ctx context.Context, start, end domain.Coordinates, original domain.RouteResult, avoid []domain.BadSegment) (*domain.RouteResult, error) {
	if len(avoid) == 0 {
		return nil, nil
	}
	routes, err := s.client.Routes(ctx, start, end, true)
	if err != nil {
		return nil, err
	}

	var best *domain.RouteResult
	bestHits := math.MaxInt
	for i := range routes {
		if routes[i].SameGeometry(original) {
			continue
		}
		hits := len(FindIntersections(routes[i], avoid, s.radius))
		if hits < bestHits && hits < len(avoid) {
			best = &routes[i]
			bestHits = hits
		}
	}
	return best, nil
}

// Straight-line sampling limits
const (
	straightLineSpacingMeters = 25.0
	straightLineMaxPoints     = 500
	minDetourOffsetMeters     = 500.0
	detourOffsetRatio         = 0.1
	metersPerDegree           = math.Pi * utils.EarthRadiusMeters / 180
)

// DefaultMockSpeedKmh is the average speed assumed for straight-line routes
const DefaultMockSpeedKmh = 50.0

// StraightLineStrategy is the degraded routing mode used when no live provider is
// configured or reachable. Every route it returns is marked approximate.
type StraightLineStrategy struct {
	speedKmh float64
}

// NewStraightLineStrategy creates the mock strategy
func NewStraightLineStrategy(averageSpeedKmh float64) *StraightLineStrategy {
	if averageSpeedKmh <= 0 {
		averageSpeedKmh = DefaultMockSpeedKmh
	}
	return &StraightLineStrategy{speedKmh: averageSpeedKmh}
}

func (s *StraightLineStrategy) Name() string { return StrategyStraightLine }

func (s *StraightLineStrategy) Route(_ context.Context, start, end domain.Coordinates) (domain.RouteResult, error) {
	return s.path(start, end), nil
}

// Alternative detours through a waypoint pushed sideways from the midpoint of the
// straight line by max(500 m, 10% of its length).
func (s *StraightLineStrategy) Alternative(_ context.Context, start, end domain.Coordinates, original domain.RouteResult, avoid []domain.BadSegment) (*domain.RouteResult, error) {
	if len(avoid) == 0 || start == end {
		return nil, nil
	}

	waypoint := detourWaypoint(start, end)
	first := s.path(start, waypoint)
	second := s.path(waypoint, end)

	route := domain.RouteResult{
		DistanceKm:      first.DistanceKm + second.DistanceKm,
		DurationMinutes: first.DurationMinutes + second.DurationMinutes,
		Coordinates:     append(first.Coordinates, second.Coordinates[1:]...),
		Approximate:     true,
	}
	if route.SameGeometry(original) {
		return nil, nil
	}
	return &route, nil
}

func (s *StraightLineStrategy) path(start, end domain.Coordinates) domain.RouteResult {
	distanceKm := utils.DistanceKm(start.Lat, start.Lon, end.Lat, end.Lon)

	n := int(math.Ceil(distanceKm*1000/straightLineSpacingMeters)) + 1
	n = utils.ClampInt(n, 2, straightLineMaxPoints)

	coords := make([]domain.LonLat, 0, n)
	for i := 0; i < n-1; i++ {
		t := float64(i) / float64(n-1)
		coords = append(coords, domain.LonLat{
			utils.Lerp(start.Lon, end.Lon, t),
			utils.Lerp(start.Lat, end.Lat, t),
		})
	}
	coords = append(coords, end.LonLat())

	return domain.RouteResult{
		DistanceKm:      distanceKm,
		DurationMinutes: distanceKm / s.speedKmh * 60,
		Coordinates:     coords,
		Approximate:     true,
	}
}

// detourWaypoint works in a local equirectangular frame around the midpoint
func detourWaypoint(start, end domain.Coordinates) domain.Coordinates {
	midLat := (start.Lat + end.Lat) / 2
	midLon := (start.Lon + end.Lon) / 2
	cosLat := math.Cos(midLat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}

	dx := (end.Lon - start.Lon) * cosLat * metersPerDegree
	dy := (end.Lat - start.Lat) * metersPerDegree
	length := math.Hypot(dx, dy)
	if length == 0 {
		return domain.Coordinates{Lat: midLat, Lon: midLon}
	}

	offset := math.Max(minDetourOffsetMeters, detourOffsetRatio*length)
	// left-hand normal of the travel direction
	nx, ny := -dy/length, dx/length

	lat := midLat + ny*offset/metersPerDegree
	lon := midLon + nx*offset/(metersPerDegree*cosLat)
	return domain.Coordinates{
		Lat: math.Max(-90, math.Min(90, lat)),
		Lon: math.Max(-180, math.Min(180, lon)),
	}
}
