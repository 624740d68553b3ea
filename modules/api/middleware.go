package api

import (
	"log/slog"
	"net/http"

	"github.com/threew1h/converter/pkg/jwt"
	"github.com/threew1h/converter/svc/auth"
)

// requireAuth verifies the bearer token and injects the resolved user into
// the request context. Requests without a valid token get a 401.
func requireAuth(authSvc *auth.Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := jwt.BearerTokenExtractor(r)
			if err != nil {
				writeError(r.Context(), w, log, auth.ErrInvalidToken)
				return
			}

			user, err := authSvc.Authenticate(r.Context(), token)
			if err != nil {
				writeError(r.Context(), w, log, err)
				return
			}

			ctx := auth.SetUserToContext(r.Context(), user)
			ctx = jwt.SetToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
