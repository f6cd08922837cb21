// Package requesttime pins a single "now" per request so validation defaults,
// stored timestamps and audit events agree.
package requesttime

import (
	"net/http"
	"time"

	"bloodbank/pkg/requestcontext"
)

// Middleware captures the request start time in the server's local zone.
// Calendar defaults such as the shelf-life expiry are computed in that zone.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware reading from clock. The reading is moved into
// time.Local whatever zone clock reports.
func WithClock(clock func() time.Time) func(http.Handler) http.Handler {
	if clock == nil {
		clock = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock().In(time.Local))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
