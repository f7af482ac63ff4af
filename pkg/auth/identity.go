package auth

import (
	"context"

	"milovat/pkg/model"
)

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID string     `json:"userId"`
	Role   model.Role `json:"role"`
}

func (i Identity) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
