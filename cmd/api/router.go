package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courtbooking/internal/config"
	"courtbooking/internal/middleware"
	"courtbooking/internal/modules/booking"
	"courtbooking/internal/modules/joinrequest"
	"courtbooking/internal/modules/membership"
	"courtbooking/internal/notification"
	jwtsvc "courtbooking/internal/pkg/jwt"
)

type handlers struct {
	booking       *booking.Handler
	joinRequests  *joinrequest.Handler
	membership    *membership.Handler
	notifications *notification.Handler
}

func newRouter(cfg *config.Config, j *jwtsvc.Service, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorLogger(), middleware.RequestLogger(), middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/notifications", h.notifications.Stream)

	v1 := r.Group("/api/v1")
	{
		// public
		h.booking.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			h.booking.RegisterRoutes(protected)
			h.joinRequests.RegisterRoutes(protected)
			h.membership.RegisterRoutes(protected)
			h.notifications.RegisterRoutes(protected)
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalTokenAuth(cfg.InternalToken, cfg.InternalAllowedIPs))
		{
			h.membership.RegisterInternalRoutes(internal)
		}
	}
	return r
}
