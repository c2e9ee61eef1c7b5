// Package actorcontext carries per-request actor identity for authorization
// and audit trails.
package actorcontext

import (
	"context"

	"github.com/smallbiznis/dealdesk/internal/lifecycle"
)

type actorIDKey struct{}
type roleKey struct{}
type requestIDKey struct{}
type ipAddressKey struct{}
type userAgentKey struct{}

func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

func ActorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithRole(ctx context.Context, role lifecycle.Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the session role. A request with no resolved role
// is a guest.
func RoleFromContext(ctx context.Context) lifecycle.Role {
	if v, ok := ctx.Value(roleKey{}).(lifecycle.Role); ok {
		return v
	}
	return lifecycle.RoleGuest
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey{}, ip)
}

func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ipAddressKey{}).(string); ok {
		return v
	}
	return ""
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}
