package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"enturne-backend/config"
	"enturne-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Listings are cached briefly; any successful write flushes them.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)
	if ttl <= 0 {
		caching = func(c *gin.Context) { c.Next() }
	}

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Invalidate(cacheStore))
	{
		vehicles := api.Group("/vehicles")
		vehicles.GET("", caching, handler.GetVehicles)
		vehicles.GET("/statuses", handler.GetStatuses)
		vehicles.GET("/:id", handler.GetVehicle)
		vehicles.PUT("/:id", handler.PutVehicle)

		// Live scale data is never cached.
		sc := api.Group("/scale")
		sc.GET("/status", handler.GetScaleStatus)
		sc.GET("/events", handler.GetScaleEvents)
		sc.GET("/ports", handler.GetScalePorts)
		sc.GET("/protocols", handler.GetScaleProtocols)
		sc.POST("/connect", handler.PostScaleConnect)
		sc.POST("/disconnect", handler.PostScaleDisconnect)
		sc.POST("/capture", handler.PostScaleCapture)

		weighings := api.Group("/weighings")
		weighings.GET("", caching, handler.GetWeighings)
		weighings.GET("/stats", caching, handler.GetWeighingStats)
		weighings.GET("/export", handler.ExportWeighings)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
