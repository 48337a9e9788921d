package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/tourist_safety_system/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	if len(h.cfg.APIKeys) > 0 {
		api.Use(APIKeyAuthMiddleware(h.cfg, h.logger))
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	// пользователь WebSocket представляется кадром join, а не заголовком
	if h.ws != nil {
		api.GET("/ws", h.serveWS)
	}

	authed := api.Group("", IdentityMiddleware(h.users, h.logger))
	tourist := RequireRole(models.RoleTourist)
	authority := RequireRole(models.RoleAuthority)
	limited := newLocationRateLimit(h.cfg.LocationRateLimit, h.logger)

	alerts := authed.Group("/alerts")
	{
		alerts.POST("", tourist, h.createAlert)
		alerts.GET("/mine", tourist, h.listMyAlerts)
		alerts.GET("/active", authority, h.listActiveAlerts)
		alerts.GET("/nearby", authority, h.listNearbyAlerts)
		alerts.GET("/stats", authority, h.getAlertStats)
		alerts.GET("/:id", h.getAlert)
		alerts.PATCH("/:id", authority, h.updateAlert)
		alerts.PATCH("/:id/status", authority, h.updateAlertStatus)
		alerts.PATCH("/:id/priority", authority, h.escalateAlert)
		alerts.POST("/:id/cancel", h.cancelAlert)
	}

	geofences := authed.Group("/geofences")
	{
		geofences.POST("", authority, h.createGeoFence)
		geofences.GET("", h.listGeoFences)
		geofences.POST("/check", limited, h.checkPoint)
		geofences.GET("/:id", h.getGeoFence)
		geofences.PUT("/:id", authority, h.updateGeoFence)
		geofences.DELETE("/:id", authority, h.deleteGeoFence)
	}

	location := authed.Group("/location")
	{
		location.POST("", tourist, limited, h.reportLocation)
		location.GET("/history", tourist, h.locationHistory)
	}
}

// newLocationRateLimit ограничивает частоту замеров на пользователя; пустая строка отключает лимит
func newLocationRateLimit(formatted string, log *logrus.Logger) gin.HandlerFunc {
	if formatted == "" {
		return func(c *gin.Context) { c.Next() }
	}

	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.WithError(err).WithField("rate", formatted).Warn("Invalid location rate limit, using 120-M")
		rate, _ = limiter.NewRateFromFormatted("120-M")
	}

	return mgin.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		mgin.WithKeyGetter(func(c *gin.Context) string {
			if actor := actorFrom(c); actor != nil {
				return "user:" + actor.ID
			}
			return "ip:" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, Response{
				Message: "too many location reports, slow down",
				Reason:  "rate_limited",
			})
		}),
	)
}
