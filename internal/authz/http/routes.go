package authzhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/aegis-authz/aegis/internal/shared"
)

// MountRoutes registers the identity and decision endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Put("/identity", h.handleIngest)
	r.Delete("/identity/{sessionID}", h.handleRevoke)

	r.Post("/decisions/permission", h.handlePermission)
	r.Post("/decisions/resource", h.handleResource)
	r.Post("/decisions/access", h.handleAccess)
	r.Post("/decisions/data", h.handleData)
	r.Get("/levels/feature/{feature}", h.handleFeatureLevel)
	r.Get("/levels/{resource}", h.handleLevel)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/profile", h.handleProfile)
		gr.Post("/decisions/batch", h.handleBatch)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if sess := strings.TrimSpace(r.Header.Get(shared.SessionHeader)); sess != "" {
		return "session:" + sess, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
