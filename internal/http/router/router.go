// Package router arma el chi.Router del agente local.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/stamper/internal/http/controllers/health"
	"github.com/dropDatabas3/stamper/internal/http/controllers/keys"
	httperrors "github.com/dropDatabas3/stamper/internal/http/errors"
	mw "github.com/dropDatabas3/stamper/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Manager    keys.KeyManager
	Version    string
	MaxPayload int64

	// Gatherer de /metrics; nil usa prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, health.NewHealthController(deps.Manager, deps.Version))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.With(mw.WithRecover()).Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIStack())
		registerKeyRoutes(r, keys.NewKeysController(deps.Manager), keys.NewStampController(deps.Manager, deps.MaxPayload))
	})
	return r
}
