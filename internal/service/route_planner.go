package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roadwatch/backend/internal/domain"
)

// DefaultProviderTimeout bounds every geocoding and routing call
const DefaultProviderTimeout = 15 * time.Second

// SegmentSource supplies the current bad segments
type SegmentSource interface {
	Segments(ctx context.Context) ([]domain.BadSegment, error)
}

// PlannerOptions configures a RoutePlanner
type PlannerOptions struct {
	ProviderTimeout          time.Duration
	IntersectionRadiusMeters float64

	// Fallback, when set, serves requests the primary strategy cannot
	Fallback RoutingStrategy
}

// RoutePlanner resolves route endpoints, computes a route and compares it
// against the known bad segments.
type RoutePlanner struct {
	geocoder domain.Geocoder
	segments SegmentSource
	strategy RoutingStrategy
	fallback RoutingStrategy
	timeout  time.Duration
	radius   float64
	logger   *zap.Logger
}

// NewRoutePlanner creates a new route planner
func NewRoutePlanner(
	geocoder domain.Geocoder,
	segments SegmentSource,
	strategy RoutingStrategy,
	opts PlannerOptions,
	logger *zap.Logger,
) *RoutePlanner {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = DefaultProviderTimeout
	}
	if opts.IntersectionRadiusMeters <= 0 {
		opts.IntersectionRadiusMeters = DefaultIntersectionRadiusMeters
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutePlanner{
		geocoder: geocoder,
		segments: segments,
		strategy: strategy,
		fallback: opts.Fallback,
		timeout:  opts.ProviderTimeout,
		radius:   opts.IntersectionRadiusMeters,
		logger:   logger,
	}
}

// StrategyName returns the name of the primary routing strategy
func (p *RoutePlanner) StrategyName() string {
	return p.strategy.Name()
}

// Plan computes the route between two locations and recommends whether to take
// an alternative. Neither the store nor the segment cache is changed by a plan.
func (p *RoutePlanner) Plan(ctx context.Context, req domain.RoutePlanRequest) (domain.RouteComparisonResult, error) {
	if req.Start.IsEmpty() || req.End.IsEmpty() {
		return domain.RouteComparisonResult{}, fmt.Errorf("%w: start and end locations are required", domain.ErrInvalidInput)
	}

	start, err := p.resolve(ctx, req.Start)
	if err != nil {
		return domain.RouteComparisonResult{}, fmt.Errorf("start location: %w", err)
	}
	end, err := p.resolve(ctx, req.End)
	if err != nil {
		return domain.RouteComparisonResult{}, fmt.Errorf("end location: %w", err)
	}

	segments, err := p.segments.Segments(ctx)
	if err != nil {
		return domain.RouteComparisonResult{}, fmt.Errorf("route planner: load segments: %w", err)
	}

	strategy := p.strategy
	original, err := p.route(ctx, strategy, start, end)
	if err != nil {
		if p.fallback == nil || !errors.Is(err, domain.ErrRoutingProviderUnavailable) {
			return domain.RouteComparisonResult{}, err
		}
		p.logger.Warn("routing provider failed, using fallback",
			zap.String("strategy", strategy.Name()),
			zap.String("fallback", p.fallback.Name()),
			zap.Error(err),
		)
		strategy = p.fallback
		original, err = p.route(ctx, strategy, start, end)
		if err != nil {
			return domain.RouteComparisonResult{}, err
		}
	}

	var alternative *domain.RouteResult
	if detected := FindIntersections(original, segments, p.radius); len(detected) > 0 {
		alternative, err = p.alternative(ctx, strategy, start, end, original, detected)
		if err != nil {
			// the original route is still worth returning
			p.logger.Warn("alternative route failed",
				zap.String("strategy", strategy.Name()),
				zap.Error(err),
			)
			alternative = nil
		}
	}

	result := CompareRoutes(start, end, original, alternative, segments, p.radius)
	result.RoutingStrategy = strategy.Name()
	return result, nil
}

func (p *RoutePlanner) resolve(ctx context.Context, in domain.LocationInput) (domain.Coordinates, error) {
	if in.Coords != nil {
		if !in.Coords.Valid() {
			return domain.Coordinates{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
		}
		return *in.Coords, nil
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.Coordinates{}, fmt.Errorf("%w: empty location", domain.ErrInvalidInput)
	}
	if c, ok, err := ParseCoordinatePair(text); ok {
		return c, err
	}

	if p.geocoder == nil {
		return domain.Coordinates{}, fmt.Errorf("%w: no geocoder configured for %q", domain.ErrLocationNotFound, text)
	}

	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	c, err := p.geocoder.Geocode(tctx, text)
	if err != nil {
		return domain.Coordinates{}, timeoutAsUnavailable(tctx, err)
	}
	return c, nil
}

func (p *RoutePlanner) route(ctx context.Context, s RoutingStrategy, start, end domain.Coordinates) (domain.RouteResult, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	r, err := s.Route(tctx, start, end)
	if err != nil {
		return domain.RouteResult{}, timeoutAsUnavailable(tctx, err)
	}
	return r, nil
}

func (p *RoutePlanner) alternative(ctx context.Context, s RoutingStrategy, start, end domain.Coordinates, original domain.RouteResult, avoid []domain.BadSegment) (*domain.RouteResult, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	r, err := s.Alternative(tctx, start, end, original, avoid)
	if err != nil {
		return nil, timeoutAsUnavailable(tctx, err)
	}
	return r, nil
}

// timeoutAsUnavailable reports an expired provider deadline as an unavailable provider
func timeoutAsUnavailable(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrRoutingProviderUnavailable) || errors.Is(err, domain.ErrLocationNotFound) || errors.Is(err, domain.ErrNoRoute) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("provider timed out: %w: %w", domain.ErrRoutingProviderUnavailable, err)
	}
	return err
}
