package authzhttp

import (
	"log/slog"
	"net/http"

	"github.com/aegis-authz/aegis/internal/identity"
	"github.com/aegis-authz/aegis/internal/shared"
)

// ResolverMiddleware loads the snapshot named by the session header and
// binds its resolver into the request context. Requests without a session
// pass through with a deny-all resolver; only a store failure is an error.
func ResolverMiddleware(service *identity.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolver, err := service.ResolverFor(r.Context(), r.Header.Get(shared.SessionHeader))
			if err != nil {
				if logger != nil {
					logger.Error("load identity snapshot", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithResolver(r.Context(), resolver)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
