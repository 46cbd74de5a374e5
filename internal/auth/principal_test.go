package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"vendorhub/internal/domain"
	apperrors "vendorhub/pkg/errors"
)

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(&Principal{Role: domain.RoleAdmin}))
	assert.True(t, apperrors.IsUnauthorized(RequireAdmin(&Principal{Role: domain.RoleVendor})))
	assert.True(t, apperrors.IsUnauthorized(RequireAdmin(nil)))
}

func TestPrincipalContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	p := &Principal{UserID: 1, Username: "ops", Role: domain.RoleAdmin}
	ctx := WithPrincipal(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}
