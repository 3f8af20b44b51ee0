// Package router đăng ký các route thuộc domain Stats: keywords, time-series,
// platforms, comparison, metadata và trigger rebuild.
package router

import (
	"github.com/gofiber/fiber/v3"

	apirouter "github.com/DITreneris/shopsentiment-sub001/internal/api/router"
	statshdl "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/handler"
	statssvc "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/service"
)

// Register đăng ký tất cả route stats lên v1.
func Register(service *statssvc.StatsService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, _ *apirouter.Router) error {
		statsHandler := statshdl.NewStatsHandler(service)

		apirouter.RegisterRouteWithMiddleware(v1, "/stats", "GET", "/keywords", nil, statsHandler.HandleGetKeywords)
		apirouter.RegisterRouteWithMiddleware(v1, "/stats", "GET", "/time-series", nil, statsHandler.HandleGetTimeSeries)
		apirouter.RegisterRouteWithMiddleware(v1, "/stats", "GET", "/platforms", nil, statsHandler.HandleGetPlatforms)
		apirouter.RegisterRouteWithMiddleware(v1, "/stats", "GET", "/comparison", nil, statsHandler.HandleGetComparison)
		apirouter.RegisterRouteWithMiddleware(v1, "/stats", "GET", "/metadata", nil, statsHandler.HandleGetMetadata)
		apirouter.RegisterRouteWithMiddleware(v1, "/stats", "POST", "/rebuild", nil, statsHandler.HandleRebuild)
		return nil
	}
}
