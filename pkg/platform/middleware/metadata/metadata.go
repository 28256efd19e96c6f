// Package metadata captures client details of the request for logging and throttling.
package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// KioskHeader identifies the self-service terminal that sent the request.
const KioskHeader = "X-Kiosk-ID"

type clientKey struct{}

type client struct {
	ip        string
	userAgent string
	kioskID   string
}

// ClientMetadata stores the client IP, User-Agent and kiosk id in the request
// context. Run it after chi's RealIP so proxied addresses are already resolved.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClient(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"), r.Header.Get(KioskHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithClient injects client metadata. Tests use it in place of the middleware.
func WithClient(ctx context.Context, ip, userAgent, kioskID string) context.Context {
	return context.WithValue(ctx, clientKey{}, client{
		ip:        ip,
		userAgent: strings.TrimSpace(userAgent),
		kioskID:   strings.TrimSpace(kioskID),
	})
}

func ClientIP(ctx context.Context) string {
	c, _ := ctx.Value(clientKey{}).(client)
	return c.ip
}

func UserAgent(ctx context.Context) string {
	c, _ := ctx.Value(clientKey{}).(client)
	return c.userAgent
}

// KioskID is empty for requests that did not come from a kiosk.
func KioskID(ctx context.Context) string {
	c, _ := ctx.Value(clientKey{}).(client)
	return c.kioskID
}

// ClientIPFromRequest strips the port from RemoteAddr.
func ClientIPFromRequest(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
