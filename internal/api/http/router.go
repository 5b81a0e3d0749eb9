package http

import (
	"github.com/cassandra-vlf/cassandra/internal/api/http/handler"
	"github.com/cassandra-vlf/cassandra/internal/api/http/middleware"
	"github.com/cassandra-vlf/cassandra/internal/metrics"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Discovery   handler.DiscoveryService
	AdminAPIKey string
}

func SetupRoute(engine *gin.Engine, srvs *Services) {
	engine.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler()
	engine.GET("/health", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	if srvs.Discovery == nil {
		return
	}

	discoveryHandler := handler.NewDiscoveryHandler(srvs.Discovery)
	engine.GET("/stations", discoveryHandler.ListStations)
	engine.GET("/frames", discoveryHandler.ListFrames)
	engine.GET("/wavs", discoveryHandler.ListWavs)

	cacheGroup := engine.Group("/cache")
	cacheGroup.GET("/status", discoveryHandler.CacheStatus)
	cacheGroup.GET("/clear", middleware.APIKeyAuth(srvs.AdminAPIKey), discoveryHandler.ClearCache)
}
