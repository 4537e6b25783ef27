package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/stamper/internal/http/controllers/health"
	mw "github.com/dropDatabas3/stamper/internal/http/middlewares"
)

// registerHealthRoutes registra rutas de health check.
// Sin logging: son muy frecuentes.
func registerHealthRoutes(r chi.Router, c *health.HealthController) {
	r.Group(func(r chi.Router) {
		r.Use(mw.WithRecover(), mw.WithRequestID())
		r.Get("/healthz", c.Healthz)
		r.Get("/readyz", c.Readyz)
	})
}
