package auth

import (
	"context"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

type Identity struct {
	UserID    int64
	SessionID string
	Role      enums.Role
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
