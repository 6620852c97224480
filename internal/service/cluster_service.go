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

// ClusterService serves the admin view of pothole clusters and their repair status
type ClusterService struct {
	reports  domain.ReportRepository
	statuses domain.ClusterStatusRepository
	radius   float64
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewClusterService creates a new cluster service
func NewClusterService(
	reports domain.ReportRepository,
	statuses domain.ClusterStatusRepository,
	radiusMeters float64,
	logger *zap.Logger,
) *ClusterService {
	if radiusMeters <= 0 {
		radiusMeters = domain.DefaultClusterRadiusMeters
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClusterService{
		reports:  reports,
		statuses: statuses,
		radius:   radiusMeters,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Overview clusters the current reports and attaches each cluster's stored status.
// Clusters without a stored status are Open.
func (s *ClusterService) Overview(ctx context.Context) (domain.ClusterOverview, error) {
	reports, err := s.reports.ListReports(ctx)
	if err != nil {
		return domain.ClusterOverview{}, fmt.Errorf("cluster service: list reports: %w", err)
	}
	records, err := s.statuses.ListClusterStatuses(ctx)
	if err != nil {
		return domain.ClusterOverview{}, fmt.Errorf("cluster service: list statuses: %w", err)
	}

	byID := make(map[string]domain.ClusterStatusRecord, len(records))
	for _, rec := range records {
		byID[rec.ClusterID] = rec
	}

	clusters := DetectClusters(reports, s.radius)
	for i := range clusters {
		if rec, ok := byID[clusters[i].ID]; ok {
			updated := rec.UpdatedAt
			clusters[i].Status = rec.Status
			clusters[i].UpdatedAt = &updated
		}
	}

	return domain.ClusterOverview{
		Summary:  summarizeReports(reports),
		Clusters: clusters,
	}, nil
}

// UpdateStatus stores a new status for a cluster
func (s *ClusterService) UpdateStatus(ctx context.Context, req domain.ClusterStatusUpdate) (domain.ClusterStatusRecord, error) {
	req.ClusterID = strings.TrimSpace(req.ClusterID)
	if err := s.validate.Struct(req); err != nil {
		return domain.ClusterStatusRecord{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}
	status, ok := domain.ParseClusterStatus(req.Status)
	if !ok {
		return domain.ClusterStatusRecord{}, fmt.Errorf("%w: status must be one of: Open, In Progress, Fixed", domain.ErrInvalidInput)
	}

	record := domain.ClusterStatusRecord{
		ClusterID: req.ClusterID,
		Status:    status,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.statuses.SaveClusterStatus(ctx, record); err != nil {
		return domain.ClusterStatusRecord{}, fmt.Errorf("cluster service: save status: %w", err)
	}

	s.logger.Info("cluster status updated",
		zap.String("cluster_id", record.ClusterID),
		zap.String("status", string(record.Status)),
	)
	return record, nil
}
