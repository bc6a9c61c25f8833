// Package router registers the HTTP routes and their middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/config"
	"github.com/iliyamo/device-ops-dashboard/internal/handler"
	"github.com/iliyamo/device-ops-dashboard/internal/middleware"
)

// Handlers groups every HTTP handler of the service.
type Handlers struct {
	Auth      *handler.AuthHandler
	Demo      *handler.DemoHandler
	Inventory *handler.InventoryHandler
	Hospital  *handler.HospitalHandler
	Region    *handler.RegionHandler
	Team      *handler.TeamHandler
	Catalog   *handler.CatalogHandler
	Field     *handler.FieldHandler
}

// Deps is the shared middleware configuration.
type Deps struct {
	JWTSecret string
	Guard     *middleware.Guard
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Logger    *zap.Logger
	DB        handler.Pinger
}

// Register mounts every route on e.
func Register(e *echo.Echo, h Handlers, d Deps) {
	limit := middleware.RateLimit(d.RateLimit, d.Redis, d.Logger)

	RegisterPublic(e, h, d, limit)
	RegisterAPI(e, h, d)
	RegisterAdmin(e, h, d.Guard, limit)
	RegisterField(e, h, d.Guard)
}

// RegisterPublic mounts the routes that need no session.
func RegisterPublic(e *echo.Echo, h Handlers, d Deps, limit echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health(d.DB))
	e.GET(middleware.LoginPath, h.Auth.Login)
	e.POST("/signup", h.Auth.SignUp, limit)
}

// RegisterAPI mounts the JSON feeds polled by the dashboards. Responses are
// cached in Redis when it is available.
func RegisterAPI(e *echo.Echo, h Handlers, d Deps) {
	g := e.Group("/api",
		middleware.JWTAuth(d.JWTSecret),
		middleware.ResponseCache(d.Cache, d.Redis, d.Logger),
	)
	g.GET("/demo", h.Demo.Overview)
	g.GET("/inventory", h.Inventory.Summary)
}
