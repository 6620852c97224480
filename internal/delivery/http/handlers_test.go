package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/backend/internal/domain"
	"github.com/roadwatch/backend/internal/repository/postgres"
)

type MockSegmentService struct {
	mock.Mock
}

func (m *MockSegmentService) PotholeLocations(ctx context.Context) ([]domain.PotholeLocation, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]domain.PotholeLocation)
	return out, args.Error(1)
}

func (m *MockSegmentService) Overview(ctx context.Context) (domain.BadSegmentsResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.BadSegmentsResponse), args.Error(1)
}

func (m *MockSegmentService) Refresh(ctx context.Context) ([]domain.BadSegment, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]domain.BadSegment)
	return out, args.Error(1)
}

func (m *MockSegmentService) AddReport(ctx context.Context, req domain.NewReportRequest) (domain.Report, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Report), args.Error(1)
}

type MockClusterService struct {
	mock.Mock
}

func (m *MockClusterService) Overview(ctx context.Context) (domain.ClusterOverview, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ClusterOverview), args.Error(1)
}

func (m *MockClusterService) UpdateStatus(ctx context.Context, req domain.ClusterStatusUpdate) (domain.ClusterStatusRecord, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.ClusterStatusRecord), args.Error(1)
}

type MockRoutePlanner struct {
	mock.Mock
}

func (m *MockRoutePlanner) Plan(ctx context.Context, req domain.RoutePlanRequest) (domain.RouteComparisonResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.RouteComparisonResult), args.Error(1)
}

func (m *MockRoutePlanner) StrategyName() string {
	return "mock"
}

func newTestApp(segments *MockSegmentService, planner *MockRoutePlanner) *fiber.App {
	return newTestAppWithClusters(segments, &MockClusterService{}, planner)
}

func newTestAppWithClusters(segments *MockSegmentService, clusters *MockClusterService, planner *MockRoutePlanner) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, segments, clusters, planner, postgres.NewMockRepository())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(&MockSegmentService{}, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodGet, "/health", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "mock", body["routing_strategy"])
}

func TestGetPotholeLocations(t *testing.T) {
	segments := &MockSegmentService{}
	segments.On("PotholeLocations", mock.Anything).Return([]domain.PotholeLocation{
		{ID: "a", Lat: 12.97, Lon: 77.59, Severity: domain.SeverityHigh, Road: "MG Road"},
		{ID: "b", Lat: 12.98, Lon: 77.60, Severity: domain.SeverityLow, Road: "MG Road"},
	}, nil)
	app := newTestApp(segments, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodGet, "/api/potholes/locations", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["potholes"], 2)
}

func TestGetBadSegments(t *testing.T) {
	segments := &MockSegmentService{}
	segments.On("Overview", mock.Anything).Return(domain.BadSegmentsResponse{
		BadSegments:   []domain.BadSegment{{SegmentID: "MG_Road_12.97_77.59", PotholeCount: 3}},
		Statistics:    domain.SegmentStatistics{TotalReports: 4, BadRoadSegments: 1, PotholesInSeries: 3},
		TotalSegments: 1,
	}, nil)
	app := newTestApp(segments, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodGet, "/api/bad-segments", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["total_segments"])
	stats, ok := body["statistics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), stats["potholes_in_series"])
}

func TestRefreshBadSegments(t *testing.T) {
	segments := &MockSegmentService{}
	segments.On("Refresh", mock.Anything).Return([]domain.BadSegment{{}, {}}, nil)
	app := newTestApp(segments, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodPost, "/api/bad-segments/refresh", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["segments_count"])
	assert.NotEmpty(t, body["message"])
}

func TestPlanRoute_AcceptsStringsAndArrays(t *testing.T) {
	planner := &MockRoutePlanner{}
	planner.On("Plan", mock.Anything, mock.MatchedBy(func(req domain.RoutePlanRequest) bool {
		return req.Start.Text == "MG Road, Bangalore" &&
			req.End.Coords != nil && req.End.Coords.Lat == 12.98 && req.End.Coords.Lon == 77.61
	})).Return(domain.RouteComparisonResult{
		HealthScore:     100,
		RoutingStrategy: "mock",
		Recommendation:  domain.Recommendation{Severity: domain.RecommendationSafe},
	}, nil)
	app := newTestApp(&MockSegmentService{}, planner)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/route/plan",
		`{"start":"MG Road, Bangalore","end":[12.98,77.61]}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(100), body["health_score"])
	assert.Nil(t, body["alternative_route"])
	planner.AssertExpectations(t)
}

func TestPlanRoute_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"location not found", fmt.Errorf("start location: %w", domain.ErrLocationNotFound), fiber.StatusBadRequest},
		{"invalid input", fmt.Errorf("%w: start and end locations are required", domain.ErrInvalidInput), fiber.StatusBadRequest},
		{"provider unavailable", fmt.Errorf("ors: %w", domain.ErrRoutingProviderUnavailable), fiber.StatusServiceUnavailable},
		{"no route", fmt.Errorf("osrm: NoRoute: %w", domain.ErrNoRoute), fiber.StatusUnprocessableEntity},
		{"unexpected", fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := &MockRoutePlanner{}
			planner.On("Plan", mock.Anything, mock.Anything).Return(domain.RouteComparisonResult{}, tt.err)
			app := newTestApp(&MockSegmentService{}, planner)

			status, body := doJSON(t, app, fiber.MethodPost, "/api/route/plan", `{"start":"a","end":"b"}`)

			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPlanRoute_MalformedBody(t *testing.T) {
	app := newTestApp(&MockSegmentService{}, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodPost, "/api/route/plan", `{"start":[1,2,3],"end":"b"}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestAddPothole(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		segments := &MockSegmentService{}
		segments.On("AddReport", mock.Anything, mock.MatchedBy(func(req domain.NewReportRequest) bool {
			return req.Severity == "High" && req.Latitude == 12.97
		})).Return(domain.Report{ID: "new-id", Severity: domain.SeverityHigh, Road: "MG Road"}, nil)
		app := newTestApp(segments, &MockRoutePlanner{})

		status, body := doJSON(t, app, fiber.MethodPost, "/api/admin/add-pothole",
			`{"latitude":12.97,"longitude":77.59,"severity":"High"}`)

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, true, body["success"])
		report, ok := body["report"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "new-id", report["id"])
	})

	t.Run("rejected", func(t *testing.T) {
		segments := &MockSegmentService{}
		segments.On("AddReport", mock.Anything, mock.Anything).
			Return(domain.Report{}, fmt.Errorf("%w: severity must be one of: Low Medium High", domain.ErrInvalidInput))
		app := newTestApp(segments, &MockRoutePlanner{})

		status, body := doJSON(t, app, fiber.MethodPost, "/api/admin/add-pothole",
			`{"latitude":12.97,"longitude":77.59,"severity":"Extreme"}`)

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "severity")
	})
}

func TestGetClusters(t *testing.T) {
	clusters := &MockClusterService{}
	clusters.On("Overview", mock.Anything).Return(domain.ClusterOverview{
		Summary: domain.ClusterSummary{Total: 5, High: 2, Medium: 1, Low: 1, None: 1},
		Clusters: []domain.PotholeCluster{{
			ID:           "12.9756_77.6066",
			FriendlyName: "Shivajinagar - MG Road",
			ReportCount:  4,
			MaxSeverity:  domain.SeverityHigh,
			Status:       domain.ClusterInProgress,
		}},
	}, nil)
	app := newTestAppWithClusters(&MockSegmentService{}, clusters, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodGet, "/api/admin/clusters", "")

	assert.Equal(t, fiber.StatusOK, status)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(5), summary["total"])
	list := body["clusters"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "In Progress", list[0].(map[string]interface{})["status"])
}

func TestUpdateClusterStatus(t *testing.T) {
	clusters := &MockClusterService{}
	req := domain.ClusterStatusUpdate{ClusterID: "12.9756_77.6066", Status: "Fixed"}
	clusters.On("UpdateStatus", mock.Anything, req).
		Return(domain.ClusterStatusRecord{ClusterID: req.ClusterID, Status: domain.ClusterFixed}, nil)
	app := newTestAppWithClusters(&MockSegmentService{}, clusters, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodPost, "/api/admin/cluster/update",
		`{"cluster_id":"12.9756_77.6066","status":"Fixed"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Fixed", body["cluster"].(map[string]interface{})["status"])
	clusters.AssertExpectations(t)
}

func TestUpdateClusterStatus_FormBody(t *testing.T) {
	clusters := &MockClusterService{}
	req := domain.ClusterStatusUpdate{ClusterID: "12.9756_77.6066", Status: "In Progress"}
	clusters.On("UpdateStatus", mock.Anything, req).
		Return(domain.ClusterStatusRecord{ClusterID: req.ClusterID, Status: domain.ClusterInProgress}, nil)
	app := newTestAppWithClusters(&MockSegmentService{}, clusters, &MockRoutePlanner{})

	httpReq := httptest.NewRequest(fiber.MethodPost, "/api/admin/cluster/update",
		strings.NewReader("cluster_id=12.9756_77.6066&status=In+Progress"))
	httpReq.Header.Set("Content-Type", fiber.MIMEApplicationForm)

	resp, err := app.Test(httpReq, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	clusters.AssertExpectations(t)
}

func TestUpdateClusterStatus_InvalidStatus(t *testing.T) {
	clusters := &MockClusterService{}
	clusters.On("UpdateStatus", mock.Anything, mock.Anything).
		Return(domain.ClusterStatusRecord{}, fmt.Errorf("%w: status must be one of: Open, In Progress, Fixed", domain.ErrInvalidInput))
	app := newTestAppWithClusters(&MockSegmentService{}, clusters, &MockRoutePlanner{})

	status, body := doJSON(t, app, fiber.MethodPost, "/api/admin/cluster/update",
		`{"cluster_id":"x","status":"Closed"}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "In Progress")
}
