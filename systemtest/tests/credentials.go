package tests

import (
	"context"
	"testing"

	"github.com/EternisAI/sketch-provisioner/internal/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialGrants(t *testing.T, authority *credentials.Authority) {
	ctx := context.Background()

	t.Run("rollback of a colliding issue spares the existing owner", func(t *testing.T) {
		bob, err := authority.Issue(ctx, "bob", "shared1")
		require.NoError(t, err)
		alice, err := authority.Issue(ctx, "alice", "shared1")
		require.NoError(t, err)

		require.NoError(t, authority.RevokeGrants(ctx, alice.GrantIDs...))

		_, err = authority.Validate(ctx, alice.AccessToken, credentials.UseAccess)
		assert.ErrorIs(t, err, credentials.ErrTokenRevoked)
		_, err = authority.Validate(ctx, bob.AccessToken, credentials.UseAccess)
		assert.NoError(t, err)
		_, err = authority.Validate(ctx, bob.RefreshToken, credentials.UseRefresh)
		assert.NoError(t, err)
	})

	t.Run("supersede keeps only the newest pair", func(t *testing.T) {
		first, err := authority.Issue(ctx, "carol", "rotating1")
		require.NoError(t, err)
		second, err := authority.Renew(ctx, first.RefreshToken)
		require.NoError(t, err)

		require.NoError(t, authority.Supersede(ctx, second))

		_, err = authority.Validate(ctx, first.RefreshToken, credentials.UseRefresh)
		assert.ErrorIs(t, err, credentials.ErrTokenRevoked)
		_, err = authority.Validate(ctx, second.AccessToken, credentials.UseAccess)
		assert.NoError(t, err)
		_, err = authority.Validate(ctx, second.RefreshToken, credentials.UseRefresh)
		assert.NoError(t, err)
	})
}
