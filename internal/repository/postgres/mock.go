package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roadwatch/backend/internal/domain"
)

// MockRepository implements domain.ReportRepository and domain.ClusterStatusRepository
// in memory for testing/demo mode
type MockRepository struct {
	mu       sync.RWMutex
	reports  []domain.Report
	statuses map[string]domain.ClusterStatusRecord
}

// NewMockRepository creates an empty in-memory repository
func NewMockRepository() *MockRepository {
	return &MockRepository{statuses: make(map[string]domain.ClusterStatusRecord)}
}

// NewSeededMockRepository creates an in-memory repository with demo reports
func NewSeededMockRepository() *MockRepository {
	r := NewMockRepository()
	for _, rep := range demoReports(time.Now().UTC()) {
		_, _ = r.SaveReport(context.Background(), rep)
	}
	return r
}

// ListReports returns a copy of the stored reports in insertion order
func (r *MockRepository) ListReports(ctx context.Context) ([]domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Report, len(r.reports))
	copy(out, r.reports)
	return out, nil
}

// SaveReport appends a report, assigning an ID when it has none
func (r *MockRepository) SaveReport(ctx context.Context, report domain.Report) (domain.Report, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	r.mu.Lock()
	r.reports = append(r.reports, report)
	r.mu.Unlock()

	return report, nil
}

// ListClusterStatuses returns the stored statuses ordered by cluster ID
func (r *MockRepository) ListClusterStatuses(ctx context.Context) ([]domain.ClusterStatusRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ClusterStatusRecord, 0, len(r.statuses))
	for _, rec := range r.statuses {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out, nil
}

// SaveClusterStatus replaces the status of one cluster
func (r *MockRepository) SaveClusterStatus(ctx context.Context, record domain.ClusterStatusRecord) error {
	r.mu.Lock()
	r.statuses[record.ClusterID] = record
	r.mu.Unlock()
	return nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

// demoReports places a High series on MG Road, a Medium series on Brigade Road,
// a few isolated potholes and one empty upload around central Bangalore.
func demoReports(now time.Time) []domain.Report {
	type seed struct {
		lat, lon float64
		road     string
		area     string
		severity domain.Severity
	}
	seeds := []seed{
		{12.97560, 77.60660, "MG Road", "Shivajinagar", domain.SeverityHigh},
		{12.97572, 77.60745, "MG Road", "Shivajinagar", domain.SeverityMedium},
		{12.97581, 77.60830, "MG Road", "Shivajinagar", domain.SeverityHigh},
		{12.97590, 77.60915, "MG Road", "Shivajinagar", domain.SeverityLow},
		{12.97190, 77.60700, "Brigade Road", "Ashok Nagar", domain.SeverityMedium},
		{12.97270, 77.60705, "Brigade Road", "Ashok Nagar", domain.SeverityMedium},
		{12.97350, 77.60710, "Brigade Road", "Ashok Nagar", domain.SeverityLow},
		{12.96980, 77.59720, "Residency Road", "Shanthala Nagar", domain.SeverityLow},
		{12.93520, 77.62450, "Hosur Road", "Koramangala", domain.SeverityHigh},
		{12.95900, 77.64800, "Old Airport Road", "Domlur", domain.SeverityNone},
	}

	reports := make([]domain.Report, 0, len(seeds))
	for i, s := range seeds {
		reports = append(reports, domain.Report{
			Latitude:   s.lat,
			Longitude:  s.lon,
			Road:       s.road,
			Area:       s.area,
			Severity:   s.severity,
			Detections: domain.DetectionsFor(s.severity),
			Source:     "demo",
			Timestamp:  now.Add(-time.Duration(len(seeds)-i) * time.Hour),
		})
	}
	return reports
}
