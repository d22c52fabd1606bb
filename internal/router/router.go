// Package router wires handlers to HTTP routes.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/safaria/booking-server/internal/config"
	"github.com/safaria/booking-server/internal/handler"
	"github.com/safaria/booking-server/internal/middleware"
)

// Handlers carries every handler the router needs.  Grouping them in a
// struct keeps main() readable as the endpoint set grows.
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Payment *handler.PaymentHandler
	Admin   *handler.AdminReservationHandler
}

// Register mounts all routes on the provided Echo instance.
//
// Route map:
//
//	GET  /healthz                              liveness probe
//	GET  /v1/catalog/:type                     public catalog listing
//	GET  /v1/catalog/:type/:id                 public catalog item
//	POST /v1/auth/register|login|refresh|logout
//	POST /v1/reservations/payment              (auth, rate limited)
//	GET  /v1/reservations/:id/receipt          (auth)
//	GET  /v1/me                                (auth)
//	/v1/admin/reservations/:id                 (ADMIN only)
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Public browse endpoints: guests compare items before booking.
	e.GET("/v1/catalog/:type", h.Catalog.List)
	e.GET("/v1/catalog/:type/:id", h.Catalog.Get)

	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Everything below requires a valid access token.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))
	v1.Use(middleware.RequireRole("CUSTOMER", "ADMIN"))
	v1.GET("/me", h.Auth.Me)

	// The payment endpoint carries its own token bucket: card retries
	// and double-submits are the main abuse vector.
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	v1.POST("/reservations/payment", h.Payment.ProcessPayment, rl)
	v1.GET("/reservations/:id/receipt", h.Payment.DownloadReceipt)

	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.GET("/reservations/:id", h.Admin.Get)
	admin.PATCH("/reservations/:id/status", h.Admin.UpdateStatus)
	admin.DELETE("/reservations/:id", h.Admin.Delete)
}
