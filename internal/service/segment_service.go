package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/roadwatch/backend/internal/domain"
)

// SourceManual marks reports entered through the admin endpoint
const SourceManual = "manual_admin"

// SegmentService owns the bad-segment projection of the report store
type SegmentService struct {
	repo     domain.ReportRepository
	cache    domain.SegmentCache
	geocoder domain.Geocoder
	params   domain.DetectionParams
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewSegmentService creates a new segment service. geocoder may be nil, in which
// case admin reports without a road are stored under UnknownRoad.
func NewSegmentService(
	repo domain.ReportRepository,
	cache domain.SegmentCache,
	geocoder domain.Geocoder,
	params domain.DetectionParams,
	logger *zap.Logger,
) *SegmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SegmentService{
		repo:     repo,
		cache:    cache,
		geocoder: geocoder,
		params:   params,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Segments returns cached segments, recomputing them on a cache miss
func (s *SegmentService) Segments(ctx context.Context) ([]domain.BadSegment, error) {
	segments, ok, err := s.cache.Get(ctx)
	if err != nil {
		// a broken cache only costs a recomputation
		s.logger.Warn("segment cache read failed", zap.Error(err))
	}
	if ok {
		return segments, nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes segments from the store and overwrites the cache
func (s *SegmentService) Refresh(ctx context.Context) ([]domain.BadSegment, error) {
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("segment service: list reports: %w", err)
	}

	segments := DetectBadSegments(reports, s.params, s.now())
	if err := s.cache.Set(ctx, segments); err != nil {
		s.logger.Warn("segment cache write failed", zap.Error(err))
	}

	s.logger.Info("bad segments refreshed",
		zap.Int("reports", len(reports)),
		zap.Int("segments", len(segments)),
	)
	return segments, nil
}

// Overview returns the segments together with statistics over the current reports
func (s *SegmentService) Overview(ctx context.Context) (domain.BadSegmentsResponse, error) {
	segments, err := s.Segments(ctx)
	if err != nil {
		return domain.BadSegmentsResponse{}, err
	}
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return domain.BadSegmentsResponse{}, fmt.Errorf("segment service: list reports: %w", err)
	}

	return domain.BadSegmentsResponse{
		BadSegments:   segments,
		Statistics:    ComputeStatistics(reports, segments),
		TotalSegments: len(segments),
	}, nil
}

// PotholeLocations returns a map marker for every report that is an actual pothole
func (s *SegmentService) PotholeLocations(ctx context.Context) ([]domain.PotholeLocation, error) {
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("segment service: list reports: %w", err)
	}

	locations := make([]domain.PotholeLocation, 0, len(reports))
	for _, r := range reports {
		if !r.Severity.IsPothole() || !r.HasValidLocation() {
			continue
		}
		area := r.Area
		if area == "" {
			area = domain.UnknownArea
		}
		locations = append(locations, domain.PotholeLocation{
			ID:         r.ID,
			Lat:        r.Latitude,
			Lon:        r.Longitude,
			Severity:   r.Severity,
			Road:       r.RoadName(),
			Area:       area,
			Detections: r.Detections,
			Timestamp:  r.Timestamp,
		})
	}
	return locations, nil
}

// AddReport validates and stores a manual report, then refreshes the segments
func (s *SegmentService) AddReport(ctx context.Context, req domain.NewReportRequest) (domain.Report, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Report{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}
	severity, _ := domain.ParseSeverity(req.Severity)

	report := domain.Report{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Road:       strings.TrimSpace(req.Road),
		Area:       domain.UnknownArea,
		Severity:   severity,
		Detections: domain.DetectionsFor(severity),
		Source:     SourceManual,
		Notes:      req.Notes,
		Timestamp:  s.now().UTC(),
	}

	if s.geocoder != nil {
		addr, err := s.geocoder.ReverseGeocode(ctx, domain.Coordinates{Lat: req.Latitude, Lon: req.Longitude})
		if err != nil {
			s.logger.Warn("reverse geocoding failed", zap.Error(err),
				zap.Float64("lat", req.Latitude), zap.Float64("lon", req.Longitude))
		} else {
			if report.Road == "" {
				report.Road = addr.Road
			}
			report.Area = addr.Area
		}
	}
	if report.Road == "" {
		report.Road = domain.UnknownRoad
	}

	saved, err := s.repo.SaveReport(ctx, report)
	if err != nil {
		return domain.Report{}, fmt.Errorf("segment service: save report: %w", err)
	}
	s.logger.Info("manual report added",
		zap.String("id", saved.ID),
		zap.String("road", saved.Road),
		zap.String("severity", string(saved.Severity)),
	)

	if _, err := s.Refresh(ctx); err != nil {
		// the report is stored; the next refresh picks it up
		s.logger.Warn("segment refresh after report failed", zap.Error(err))
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("segment cache invalidate failed", zap.Error(err))
		}
	}
	return saved, nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
