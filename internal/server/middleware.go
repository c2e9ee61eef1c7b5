package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/dealdesk/internal/actorcontext"
	"github.com/smallbiznis/dealdesk/internal/config"
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
)

const (
	HeaderOrg       = "X-Org-ID"
	HeaderActor     = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
	HeaderRequestID = "X-Request-ID"
)

// OrgContext resolves the tenant for the request from the X-Org-ID header,
// falling back to the configured default organization.
func OrgContext(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := cfg.DefaultOrgID
		if raw := c.GetHeader(HeaderOrg); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				AbortWithError(c, newValidationError("org_id", "invalid_organization", "invalid organization header"))
				return
			}
			orgID = parsed
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorContext attaches the caller identity to the request context. A missing
// or unknown role header resolves to guest: authorization stays fail-closed
// downstream.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if actorID := c.GetHeader(HeaderActor); actorID != "" {
			ctx = actorcontext.WithActorID(ctx, actorID)
		}

		role := lifecycle.RoleGuest
		if raw := c.GetHeader(HeaderActorRole); raw != "" {
			if parsed, ok := lifecycle.ParseRole(raw); ok {
				role = parsed
			}
		}
		ctx = actorcontext.WithRole(ctx, role)

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		ctx = actorcontext.WithRequestID(ctx, requestID)

		ctx = actorcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = actorcontext.WithUserAgent(ctx, c.Request.UserAgent())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
