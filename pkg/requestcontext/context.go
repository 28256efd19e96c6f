// Package requestcontext carries request-scoped values that services and the
// sweeper read without depending on net/http: the pinned request time, the
// request id and the authenticated staff principal.
//
// Middleware sets them; tests set them the same way:
//
//	ctx = requestcontext.WithTime(ctx, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
package requestcontext

import (
	"context"
	"time"
)

type ctxKey int

const (
	keyStaff ctxKey = iota
	keyRequestID
	keyTime
)

// Principal is the authenticated front-desk user, admin or kiosk.
type Principal struct {
	ID   string
	Role string
}

// Staff returns the principal set by the auth middleware, or the zero value.
func Staff(ctx context.Context) Principal {
	p, _ := ctx.Value(keyStaff).(Principal)
	return p
}

func WithStaff(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, keyStaff, p)
}

// RequestID returns the id assigned by the requestid middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// Now returns the pinned request time, or the wall clock outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(keyTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins "now". Sweeper passes pin it once so every record in a batch
// is judged against the same instant.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyTime, t)
}
