package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/EternisAI/sketch-provisioner/internal/credentials"
	"github.com/EternisAI/sketch-provisioner/internal/inventory"
	"github.com/EternisAI/sketch-provisioner/internal/provisioning"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenRouter(refresher TokenRefresher) *gin.Engine {
	h := NewDeviceTokenHandler(refresher)
	r := gin.New()
	r.POST("/api/v1/device-tokens/refresh", h.Refresh)
	return r
}

func newTokenService(t *testing.T) (*provisioning.Service, *credentials.Authority) {
	t.Helper()
	authority := credentials.NewAuthority(credentials.Config{SigningKey: testSigningKey}, credentials.NewMemoryLedger())
	svc := provisioning.NewService(provisioning.Config{
		TemplatesRoot: t.TempDir(),
		ArchivesRoot:  t.TempDir(),
	}, authority, inventory.NewMemoryStore(), nil, nil, nil)
	return svc, authority
}

func TestRefreshDeviceToken(t *testing.T) {
	svc, authority := newTokenService(t)
	pair, err := authority.Issue(context.Background(), "alice", "pi1")
	require.NoError(t, err)
	r := setupTokenRouter(svc)

	w := doRequest(r, http.MethodPost, "/api/v1/device-tokens/refresh", dto.RefreshDeviceTokenRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.DeviceTokenResponse
	decode(t, w, &resp)
	assert.Equal(t, "pi1", resp.DeviceID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, resp.RefreshToken)

	// the rotated-out pair is rejected
	w = doRequest(r, http.MethodPost, "/api/v1/device-tokens/refresh", dto.RefreshDeviceTokenRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, err = authority.Validate(context.Background(), pair.AccessToken, credentials.UseAccess)
	assert.ErrorIs(t, err, credentials.ErrTokenRevoked)
	_, err = authority.Validate(context.Background(), resp.AccessToken, credentials.UseAccess)
	assert.NoError(t, err)
}

func TestRefreshDeviceTokenInvalid(t *testing.T) {
	svc, _ := newTokenService(t)
	r := setupTokenRouter(svc)

	w := doRequest(r, http.MethodPost, "/api/v1/device-tokens/refresh", dto.RefreshDeviceTokenRequest{RefreshToken: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/device-tokens/refresh", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
