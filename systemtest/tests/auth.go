package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/EternisAI/sketch-provisioner/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T, router *gin.Engine, jwtSecret string) {
	t.Run("operator gets the user role", func(t *testing.T) {
		rr := doJSON(router, "POST", "/auth/register", dto.RegisterRequest{Username: "greenhouse", Password: "password123"})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp dto.RegisterResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "greenhouse", resp.Username)
		assert.Equal(t, "User", resp.Role)
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("owner names are unique", func(t *testing.T) {
		body := dto.RegisterRequest{Username: "lab-7", Password: "password123"}
		require.Equal(t, http.StatusCreated, doJSON(router, "POST", "/auth/register", body).Code)
		assert.Equal(t, http.StatusConflict, doJSON(router, "POST", "/auth/register", body).Code)
	})

	t.Run("names that break broker accounts or topics", func(t *testing.T) {
		for _, name := range []string{"alice_bob", "fleet/ops", "ops#1", "Greenhouse"} {
			rr := doJSON(router, "POST", "/auth/register", dto.RegisterRequest{Username: name, Password: "password123"})
			assert.Equal(t, http.StatusBadRequest, rr.Code, name)

			rr = doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: name, Password: "password123"})
			assert.Equal(t, http.StatusUnauthorized, rr.Code, name)
		}
	})

	t.Run("missing username", func(t *testing.T) {
		rr := doJSON(router, "POST", "/auth/register", dto.RegisterRequest{Password: "password123"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("password too short", func(t *testing.T) {
		rr := doJSON(router, "POST", "/auth/register", dto.RegisterRequest{Username: "shortpw", Password: "short"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogin(t *testing.T, router *gin.Engine, jwtSecret string) {
	token := registerAndLogin(t, router, "loginuser")

	t.Run("session names the owner", func(t *testing.T) {
		claims, err := auth.ValidateToken(jwtSecret, token)
		require.NoError(t, err)
		assert.Equal(t, "loginuser", claims.Username)
		assert.Equal(t, "User", claims.Role)

		rr := doJSONWithAuth(router, "GET", "/api/v1/devices", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp dto.ListDevicesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Zero(t, resp.Count)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "loginuser", Password: "wrongpassword"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown operator", func(t *testing.T) {
		rr := doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "nouser", Password: "password123"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
