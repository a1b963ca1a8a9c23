package credentials

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestAuthority() (*Authority, *MemoryLedger) {
	ledger := NewMemoryLedger()
	return NewAuthority(Config{SigningKey: testKey}, ledger), ledger
}

func TestIssue(t *testing.T) {
	a, ledger := newTestAuthority()
	ctx := context.Background()

	pair, err := a.Issue(ctx, "alice", "dev1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))
	assert.Len(t, strings.Split(pair.AccessToken, "."), 3)

	claims, err := a.Validate(ctx, pair.AccessToken, UseAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Owner)
	assert.Equal(t, "dev1", claims.Subject)
	assert.Equal(t, "sketch-provisioner", claims.Issuer)

	grants := ledger.Grants("dev1")
	require.Len(t, grants, 2)
	assert.ElementsMatch(t, []string{grants[0].ID, grants[1].ID}, pair.GrantIDs)
	assert.Equal(t, claims.ID, pair.GrantIDs[0])
	assert.Equal(t, "alice", pair.Owner)
	assert.Equal(t, "dev1", pair.DeviceID)
}

func TestIssueRequiresOwnerAndDevice(t *testing.T) {
	a, _ := newTestAuthority()

	_, err := a.Issue(context.Background(), "", "dev1")
	assert.Error(t, err)
	_, err = a.Issue(context.Background(), "alice", "")
	assert.Error(t, err)
}

func TestValidateWrongUse(t *testing.T) {
	a, _ := newTestAuthority()
	ctx := context.Background()

	pair, err := a.Issue(ctx, "alice", "dev1")
	require.NoError(t, err)

	_, err = a.Validate(ctx, pair.AccessToken, UseRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = a.Validate(ctx, pair.RefreshToken, UseAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateForeignSignature(t *testing.T) {
	a, _ := newTestAuthority()
	other := NewAuthority(Config{SigningKey: strings.Repeat("z", 32)}, NewMemoryLedger())

	pair, err := other.Issue(context.Background(), "alice", "dev1")
	require.NoError(t, err)

	_, err = a.Validate(context.Background(), pair.AccessToken, UseAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	a, _ := newTestAuthority()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Owner: "alice", Use: UseAccess})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Validate(context.Background(), signed, UseAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	a, _ := newTestAuthority()
	ctx := context.Background()

	issuedAt := time.Now().Add(-48 * time.Hour)
	a.now = func() time.Time { return issuedAt }
	pair, err := a.Issue(ctx, "alice", "dev1")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.Validate(ctx, pair.AccessToken, UseAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// refresh tokens outlive access tokens
	_, err = a.Validate(ctx, pair.RefreshToken, UseRefresh)
	assert.NoError(t, err)
}

func TestRevokeDevice(t *testing.T) {
	a, _ := newTestAuthority()
	ctx := context.Background()

	pair, err := a.Issue(ctx, "alice", "dev1")
	require.NoError(t, err)
	other, err := a.Issue(ctx, "alice", "dev2")
	require.NoError(t, err)

	require.NoError(t, a.RevokeDevice(ctx, "dev1"))

	_, err = a.Validate(ctx, pair.AccessToken, UseAccess)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = a.Validate(ctx, pair.RefreshToken, UseRefresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = a.Validate(ctx, other.AccessToken, UseAccess)
	assert.NoError(t, err)
}

func TestRevokeGrantsLeavesOtherGrantsOfDevice(t *testing.T) {
	a, ledger := newTestAuthority()
	ctx := context.Background()

	bob, err := a.Issue(ctx, "bob", "taken")
	require.NoError(t, err)
	alice, err := a.Issue(ctx, "alice", "taken")
	require.NoError(t, err)

	require.NoError(t, a.RevokeGrants(ctx, alice.GrantIDs...))

	_, err = a.Validate(ctx, alice.AccessToken, UseAccess)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = a.Validate(ctx, alice.RefreshToken, UseRefresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	claims, err := a.Validate(ctx, bob.AccessToken, UseAccess)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Owner)
	_, err = a.Validate(ctx, bob.RefreshToken, UseRefresh)
	assert.NoError(t, err)

	for _, g := range ledger.Grants("taken") {
		assert.Equal(t, g.Owner == "alice", g.RevokedAt != nil, g.Owner)
	}

	// no IDs is a no-op
	require.NoError(t, a.RevokeGrants(ctx))
}

func TestRenewAndSupersede(t *testing.T) {
	a, _ := newTestAuthority()
	ctx := context.Background()

	pair, err := a.Issue(ctx, "alice", "dev1")
	require.NoError(t, err)

	next, err := a.Renew(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", next.Owner)
	assert.Equal(t, "dev1", next.DeviceID)

	// both pairs are live until the new one supersedes the old
	_, err = a.Validate(ctx, pair.AccessToken, UseAccess)
	assert.NoError(t, err)
	_, err = a.Validate(ctx, next.AccessToken, UseAccess)
	assert.NoError(t, err)

	require.NoError(t, a.Supersede(ctx, next))

	_, err = a.Validate(ctx, next.AccessToken, UseAccess)
	assert.NoError(t, err)
	_, err = a.Validate(ctx, next.RefreshToken, UseRefresh)
	assert.NoError(t, err)
	_, err = a.Validate(ctx, pair.AccessToken, UseAccess)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = a.Renew(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRenewWithAccessToken(t *testing.T) {
	a, _ := newTestAuthority()
	ctx := context.Background()

	pair, err := a.Issue(ctx, "alice", "dev1")
	require.NoError(t, err)

	_, err = a.Renew(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemoryLedgerCleanup(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, ledger.Record(ctx, Grant{ID: "old", DeviceID: "dev1", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, ledger.Record(ctx, Grant{ID: "new", DeviceID: "dev1", ExpiresAt: now.Add(time.Hour)}))

	ledger.cleanup()

	grants := ledger.Grants("dev1")
	require.Len(t, grants, 1)
	assert.Equal(t, "new", grants[0].ID)

	revoked, err := ledger.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryLedgerStartCleanupStopsOnCancel(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		ledger.StartCleanup(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
