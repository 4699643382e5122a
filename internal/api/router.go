package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"locker-fleet-backend/config"
	"locker-fleet-backend/internal/mw"
	"locker-fleet-backend/internal/notification"
	"locker-fleet-backend/internal/orders"
	"locker-fleet-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, ordersSvc *orders.Service, pool *notification.WorkerPool, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(cfg, s, ordersSvc, pool, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Administrative surface, gated on the admin role.
		admin := api.Group("", mw.Auth(cfg.Auth.JWTSecret), mw.RequireRole("admin"))
		{
			admin.GET("/lockers", caching, handler.ListLockers)
			admin.POST("/lockers", handler.CreateLocker)
			admin.DELETE("/lockers/:physicalId", handler.DeleteLocker)
			admin.GET("/orders", handler.ListOrders)
			admin.GET("/orders/:id", handler.GetOrder)
		}

		// Device-facing surface, key-based.
		device := api.Group("", mw.DeviceKey(cfg.Auth.DeviceKey))
		{
			device.GET("/lockers/:physicalId", handler.GetLocker)
			device.PATCH("/lockers/sensors/:physicalId", handler.UpdateSensors)
		}

		// Full state push: device key or admin token may command actuation.
		api.PUT("/lockers/:physicalId", mw.Actuation(cfg.Auth.JWTSecret, cfg.Auth.DeviceKey), handler.UpdateLocker)

		// Customer surface.
		api.POST("/lockers/open", mw.OptionalAuth(cfg.Auth.JWTSecret), handler.OpenLockerByCode)
		api.POST("/orders/checkout", handler.BeginCheckout)
		api.POST("/orders/capture", handler.CaptureOrder)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
