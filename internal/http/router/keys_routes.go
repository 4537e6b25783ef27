package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/stamper/internal/http/controllers/keys"
)

func registerKeyRoutes(r chi.Router, kc *keys.KeysController, sc *keys.StampController) {
	r.Route("/keys", func(r chi.Router) {
		r.Get("/", kc.Info)
		r.Delete("/", kc.Clear)
		r.Get("/expiration", kc.Expiration)
		r.Post("/init", kc.Init)
		r.Post("/rotate", kc.Rotate)
		r.Post("/commit", kc.Commit)
		r.Post("/rollback", kc.Rollback)
		r.Post("/reset", kc.Reset)
	})
	r.Post("/stamp", sc.Stamp)
	r.Post("/verify", sc.Verify)
}
