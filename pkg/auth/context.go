package auth

import "github.com/angelmondragon/songqueue-backend/pkg/enums"

// Context describes the caller of an HTTP request once credentials are resolved.
// Anonymous callers carry the zero value.
type Context struct {
	Operator  bool
	SessionID string
}

// Role reports the actor role implied by the context.
func (c Context) Role() enums.ActorRole {
	if c.Operator {
		return enums.ActorRoleOperator
	}
	return enums.ActorRolePublic
}
