package handlers

import (
	"net/http"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/http/middleware"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/diagnosis/frontdesk/pkg/config"
	pkgmw "github.com/diagnosis/frontdesk/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

// Services groups what the API routes call.
type Services struct {
	Scans     service.ScanService
	Occupancy service.OccupancyService
	Stats     service.StatisticsService
	Customers service.CustomerService
	Auth      service.AuthService
}

// Routes mounts the desk API. Everything except login requires an employee
// token; manual actions, overrides and forced exits need a manager.
func Routes(svc Services, c cache.Cache, clk clock.Clock, config *config.Config) http.Handler {
	scans := NewScanHandler(svc.Scans)
	occupancy := NewOccupancyHandler(svc.Occupancy)
	stats := NewStatsHandler(svc.Stats, clk, config.Desk.Location())

	loginLimiter := middleware.NewRateLimiter(c, middleware.RateLimitConfig{
		Name:     "login",
		Requests: config.Auth.LoginRateLimit,
		Window:   config.Auth.LoginRateWindow,
	})
	managers := middleware.RequireRole(domain.RoleManager, domain.RoleAdmin)

	r := chi.NewRouter()
	r.Mount("/auth", NewAuthHandler(svc.Auth).Routes(loginLimiter.Middleware()))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireJWT(config.Auth.JWTSecret))

		r.With(pkgmw.IdempotencyMiddleware(c)).Post("/scans", scans.scan)
		r.With(managers).Post("/visits/manual", scans.manual)
		r.With(managers).Post("/visits/override", scans.override)

		r.Get("/occupancy", occupancy.list)
		r.Get("/occupancy/capacity", occupancy.capacity)
		r.Get("/occupancy/evacuation", occupancy.evacuation)
		r.With(managers).Post("/occupancy/{customerID}/force-exit", occupancy.forceExit)

		r.Get("/stats/daily", stats.daily)
		r.Get("/stats/weekly", stats.weekly)
		r.Get("/stats/monthly", stats.monthly)

		r.Mount("/customers", NewCustomerHandler(svc.Customers).Routes())
	})
	return r
}
