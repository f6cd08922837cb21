// Package httpapi assembles the chi router: middleware chain, inventory
// routes, admin routes and operational endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodbank/internal/inventory/handler"
	"bloodbank/internal/platform/metrics"
	"bloodbank/pkg/platform/httputil"
	"bloodbank/pkg/platform/middleware/admin"
	"bloodbank/pkg/platform/middleware/metadata"
	"bloodbank/pkg/platform/middleware/request"
	"bloodbank/pkg/platform/middleware/requesttime"
)

// healthTimeout bounds each dependency ping on /health/ready.
const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the router needs.
type Deps struct {
	Inventory     *handler.Handler
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	AdminAPIToken string
	Checks        map[string]HealthCheck
	// Clock overrides the request clock; nil means time.Now.
	Clock func() time.Time
}

// NewRouter wires all endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.WithClock(d.Clock))
	r.Use(request.Logger(d.Logger))
	r.Use(request.Recover(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", readiness(d.Checks, d.Logger))

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	d.Inventory.Register(r)
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(admin.RequireAdminToken(d.AdminAPIToken, d.Logger))
		d.Inventory.RegisterAdmin(ar)
	})
	return r
}

func readiness(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, results)
	}
}
