// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/minsu-hwang/event-ticket-reservation/internal/config"
	"github.com/minsu-hwang/event-ticket-reservation/internal/handler"
	"github.com/minsu-hwang/event-ticket-reservation/internal/middleware"
)

// RegisterHealth registers the unauthenticated health probe.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes.  Register, login, guest
// login and refresh live under /v1/auth without a session; /v1/me and
// logout require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/guest", a.GuestLogin)
	g.POST("/refresh", a.Refresh)
	// Logout with just a refresh token in the body needs no JWT.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// RegisterBrowse registers the public read endpoints.  The seat map is
// wrapped in the Redis response cache; a few seconds of staleness is fine
// because every mutation re-checks seat state under its own row lock.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	e.GET("/v1/schedules/:id", b.GetSchedule)
	e.GET("/v1/schedules/:id/seats", b.ListSeats, middleware.NewRedisCache(cacheCfg, rdb))
}

// RegisterReservations registers the buyer-facing reservation lifecycle.
// All routes require a JWT; members and guests are equally allowed.  The
// create endpoint additionally sits behind the token-bucket limiter since
// it is the hot path during on-sale spikes.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MEMBER", "GUEST", "ADMIN"),
	)
	g.POST("/schedules/:id/reservations", h.Create, middleware.NewTokenBucket(rlCfg, rdb))
	g.POST("/reservations/:id/confirm", h.Confirm)
	g.DELETE("/reservations/:id", h.Cancel)
	g.GET("/reservations/:id", h.Get)
	g.GET("/my-reservations", h.List)
}

// RegisterPayments registers the gateway webhook.  The gateway
// authenticates with a shared secret header checked by the handler's
// middleware chain in deployment; the route itself carries no JWT.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/v1/payments/webhook", p.Webhook)
}

// RegisterAdmin registers venue/event/schedule management, restricted to
// the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.POST("/venues", a.CreateVenue)
	g.POST("/events", a.CreateEvent)
	g.POST("/schedules", a.CreateSchedule)
	g.POST("/schedules/:id/open-sales", a.OpenSales)
}
