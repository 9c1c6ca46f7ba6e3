package router

import (
	"basketReco/internal/middleware"
	"basketReco/internal/rest"

	"github.com/labstack/echo/v4"
)

// SetRecommendationRoutes registers the storefront read. The limiter only
// applies there; debug scoring is admin only.
func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler, limiter echo.MiddlewareFunc) {
	reco := api.Group("/recommendations")
	reco.GET("", handler.Recommend, limiter)
	reco.GET("/debug", handler.DebugRecommend, middleware.AuthMiddleware(), middleware.AdminOnly())
}

func SetEventRoutes(api *echo.Group, handler *rest.EventHandler) {
	api.POST("/events", handler.Track)
}

func SetExperimentRoutes(api *echo.Group, handler *rest.ExperimentHandler) {
	experiments := api.Group("/experiments")
	experiments.GET("", handler.List)
	experiments.GET("/:id/assignment", handler.Assignment)
}

func SetAdminRoutes(api *echo.Group, reco *rest.RecommendationHandler, experiments *rest.ExperimentHandler) {
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("/associations", reco.Associations)

	admin.POST("/experiments", experiments.Create)
	admin.POST("/experiments/:id/start", experiments.Start)
	admin.POST("/experiments/:id/complete", experiments.Complete)
}
