package shared

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the tenant and user resolved for a request by the upstream auth layer.
type Identity struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok && id.TenantID != uuid.Nil
}
