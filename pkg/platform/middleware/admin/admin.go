package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "bloodbank/pkg/domain-errors"
	"bloodbank/pkg/platform/httputil"
	"bloodbank/pkg/requestcontext"
)

// HeaderAdminToken carries the operator token.
const HeaderAdminToken = "X-Admin-Token"

// ActorAdmin is recorded as the actor on audit events from admin routes.
const ActorAdmin = "admin"

// RequireAdminToken guards operator routes. An empty expected token disables
// them entirely rather than accepting an empty header.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(HeaderAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(ctx, ActorAdmin)))
		})
	}
}
