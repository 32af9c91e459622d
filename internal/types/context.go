package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxUserID    ContextKey = "ctx_user_id"
	CtxTeamID    ContextKey = "ctx_team_id"

	// Default values used by scripts and tests
	DefaultUserID = "00000000-0000-0000-0000-000000000000"
	DefaultTeamID = "00000000-0000-0000-0000-000000000000"
)

// Header names propagated by the request middleware
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderTeamID    = "X-Team-ID"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetTeamID(ctx context.Context) string {
	if teamID, ok := ctx.Value(CtxTeamID).(string); ok {
		return teamID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// SetTeamID sets the team ID in the context
func SetTeamID(ctx context.Context, teamID string) context.Context {
	return context.WithValue(ctx, CtxTeamID, teamID)
}

// OwnerScope is the caller identity/team pair matched against
// listing_agent_id / team_id on owner-scoped writes.
type OwnerScope struct {
	AgentID string
	TeamID  string
}

// GetOwnerScope builds the ownership predicate for the calling agent from the
// request context. Owner-scoped operations (archive, restore, delete) match a
// row when it belongs to the agent or to the agent's team.
func GetOwnerScope(ctx context.Context) OwnerScope {
	return OwnerScope{
		AgentID: GetUserID(ctx),
		TeamID:  GetTeamID(ctx),
	}
}
