package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/openhousehq/openhouse/internal/types"
)

// RequestContext propagates the request id and caller identity from headers
// into the request context. Authentication itself is handled upstream; this
// service only consumes the already-verified identity headers.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(types.HeaderRequestID)
		if requestID == "" {
			requestID = types.GenerateUUID()
		}

		userID := c.GetHeader(types.HeaderUserID)
		if userID == "" {
			userID = types.DefaultUserID
		}

		teamID := c.GetHeader(types.HeaderTeamID)
		if teamID == "" {
			teamID = types.DefaultTeamID
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
		ctx = types.SetUserID(ctx, userID)
		ctx = types.SetTeamID(ctx, teamID)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(types.HeaderRequestID, requestID)
		c.Next()
	}
}
