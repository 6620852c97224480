package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/backend/internal/domain"
)

// SegmentService is the report and bad segment API used by the handlers
type SegmentService interface {
	PotholeLocations(ctx context.Context) ([]domain.PotholeLocation, error)
	Overview(ctx context.Context) (domain.BadSegmentsResponse, error)
	Refresh(ctx context.Context) ([]domain.BadSegment, error)
	AddReport(ctx context.Context, req domain.NewReportRequest) (domain.Report, error)
}

// ClusterService is the admin cluster API used by the handlers
type ClusterService interface {
	Overview(ctx context.Context) (domain.ClusterOverview, error)
	UpdateStatus(ctx context.Context, req domain.ClusterStatusUpdate) (domain.ClusterStatusRecord, error)
}

// RoutePlanner plans routes around bad segments
type RoutePlanner interface {
	Plan(ctx context.Context, req domain.RoutePlanRequest) (domain.RouteComparisonResult, error)
	StrategyName() string
}

// Handler contains all HTTP handlers
type Handler struct {
	segmentSvc SegmentService
	clusterSvc ClusterService
	planner    RoutePlanner
	repo       domain.ReportRepository
}

// NewHandler creates a new handler
func NewHandler(segmentSvc SegmentService, clusterSvc ClusterService, planner RoutePlanner, repo domain.ReportRepository) *Handler {
	return &Handler{
		segmentSvc: segmentSvc,
		clusterSvc: clusterSvc,
		planner:    planner,
		repo:       repo,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	store := "ok"
	if err := h.repo.Health(c.Context()); err != nil {
		store = "unavailable"
	}

	return c.JSON(fiber.Map{
		"status":           "ok",
		"service":          "roadwatch-backend",
		"version":          "1.0.0",
		"store":            store,
		"routing_strategy": h.planner.StrategyName(),
	})
}

// GetPotholeLocations returns every pothole for map display
func (h *Handler) GetPotholeLocations(c *fiber.Ctx) error {
	potholes, err := h.segmentSvc.PotholeLocations(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch pothole locations")
	}

	return c.JSON(fiber.Map{
		"potholes": potholes,
		"total":    len(potholes),
	})
}

// GetBadSegments returns the bad road segments with statistics
func (h *Handler) GetBadSegments(c *fiber.Ctx) error {
	overview, err := h.segmentSvc.Overview(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch bad segments")
	}
	return c.JSON(overview)
}

// RefreshBadSegments forces recomputation of the bad segments
func (h *Handler) RefreshBadSegments(c *fiber.Ctx) error {
	segments, err := h.segmentSvc.Refresh(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to refresh bad segments")
	}

	return c.JSON(fiber.Map{
		"message":        "Bad road segments refreshed",
		"segments_count": len(segments),
	})
}

// PlanRoute plans a route and compares it against the bad segments
func (h *Handler) PlanRoute(c *fiber.Ctx) error {
	var req domain.RoutePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.planner.Plan(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// AddPothole stores a manual pothole report from the admin dashboard
func (h *Handler) AddPothole(c *fiber.Ctx) error {
	var req domain.NewReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	report, err := h.segmentSvc.AddReport(c.Context(), req)
	if err != nil {
		code, message := statusFor(err)
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Pothole report added",
		"report":  report,
	})
}

// GetClusters returns the admin pothole clusters with their repair status
func (h *Handler) GetClusters(c *fiber.Ctx) error {
	overview, err := h.clusterSvc.Overview(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch clusters")
	}
	return c.JSON(overview)
}

// UpdateClusterStatus sets a cluster to Open, In Progress or Fixed.
// Accepts a JSON or form-encoded body.
func (h *Handler) UpdateClusterStatus(c *fiber.Ctx) error {
	var req domain.ClusterStatusUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	record, err := h.clusterSvc.UpdateStatus(c.Context(), req)
	if err != nil {
		code, message := statusFor(err)
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cluster": record,
	})
}

// ErrorHandler renders every error as {"error": message}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message := statusFor(err)
	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrLocationNotFound):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNoRoute):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrRoutingProviderUnavailable):
		return fiber.StatusServiceUnavailable, err.Error()
	default:
		return fiber.StatusInternalServerError, "Internal Server Error"
	}
}
