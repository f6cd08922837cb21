// Package requestcontext carries request-scoped values (correlation ID, actor,
// client metadata, clock) without depending on net/http, so handlers, services,
// workers and tests share one set of accessors.
//
//	ctx = requestcontext.WithTime(ctx, fixed) // tests and sweeps pin the clock
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

type (
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	actorIDKey     struct{}
)

func stringValue(ctx context.Context, key any) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// ClientIP is the caller address recorded by the metadata middleware.
func ClientIP(ctx context.Context) string { return stringValue(ctx, clientIPKey{}) }

func UserAgent(ctx context.Context) string { return stringValue(ctx, userAgentKey{}) }

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// RequestID is the correlation ID logged as "request_id" and copied onto
// audit events.
func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey{}) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ActorID names who caused a write: "admin" on operator routes,
// "expiry-sweeper" for background sweeps, empty for anonymous API calls.
func ActorID(ctx context.Context) string { return stringValue(ctx, actorIDKey{}) }

func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// Now returns the pinned request time, or time.Now outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the clock for everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
