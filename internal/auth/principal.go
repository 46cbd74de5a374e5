package auth

import (
	"context"

	"vendorhub/internal/domain"
	apperrors "vendorhub/pkg/errors"
)

// Principal is the authenticated caller. Handlers pass it explicitly to
// service methods that need an authorization decision.
type Principal struct {
	UserID   uint
	Username string
	Role     domain.Role
	VendorID *uint
}

// IsAdmin reports whether the caller holds the ADMIN role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// RequireAdmin returns an Unauthorized error unless p is an admin
func RequireAdmin(p *Principal) error {
	if !p.IsAdmin() {
		return apperrors.Unauthorized()
	}
	return nil
}

type principalKey struct{}

// WithPrincipal attaches p to ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal attached by the auth middleware, or nil
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
