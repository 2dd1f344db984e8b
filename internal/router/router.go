// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dernsupport/service-desk/internal/config"
	"github.com/dernsupport/service-desk/internal/handler"
	"github.com/dernsupport/service-desk/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the guest-facing surface: registration,
// login, the service catalog, and the two anonymous submission
// endpoints.  The catalog sits behind the Redis response cache and the
// write endpoints behind the token-bucket rate limiter; both degrade to
// pass-through when Redis is unavailable.
func RegisterPublic(e *echo.Echo, cfg config.Config, rdb *redis.Client,
	a *handler.AuthHandler, st *handler.ServiceTypeHandler,
	req *handler.RequestHandler, sup *handler.SupportHandler) {

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	optional := middleware.JWTOptional(cfg.JWTSecret)

	e.POST("/register", a.Register, limit)
	e.POST("/login", a.Login, limit)

	// Active catalog only; the full listing is a manager route.
	e.GET("/services/types", st.ListActive, cache)

	// Submission attaches the caller's account when a token is present
	// and auto-creates one otherwise.
	e.POST("/services/request", req.Create, optional, limit)
	e.POST("/support/contact", sup.Create, optional, limit)
}
