package session

import (
	"context"

	"github.com/geocoder89/microblog/internal/domain/user"
)

// Principal is who the current request acts as. The zero value is anonymous.
type Principal struct {
	User *user.User
}

var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.User != nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or Anonymous.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
