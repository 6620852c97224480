package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/backend/internal/domain"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, segmentSvc SegmentService, clusterSvc ClusterService, planner RoutePlanner, repo domain.ReportRepository) {
	handler := NewHandler(segmentSvc, clusterSvc, planner, repo)

	// Health check
	app.Get("/health", handler.HealthCheck)

	api := app.Group("/api")
	{
		api.Get("/potholes/locations", handler.GetPotholeLocations)

		api.Get("/bad-segments", handler.GetBadSegments)
		api.Post("/bad-segments/refresh", handler.RefreshBadSegments)

		api.Post("/route/plan", handler.PlanRoute)

		admin := api.Group("/admin")
		admin.Post("/add-pothole", handler.AddPothole)
		admin.Get("/clusters", handler.GetClusters)
		admin.Post("/cluster/update", handler.UpdateClusterStatus)
	}
}
