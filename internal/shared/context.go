package shared

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated actor attached to a request. The engine
// trusts it as supplied by the identity layer and does not re-authenticate.
type Identity struct {
	ActorID uuid.UUID
	Role    Role
	Email   string
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
