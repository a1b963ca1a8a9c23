package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T, router *gin.Engine, jwtSecret string) {
	rr := doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "root", Password: "changeme"})
	require.Equal(t, http.StatusOK, rr.Code)
	var admin dto.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &admin))

	listUsers := func(t *testing.T, query string) dto.ListUsersResponse {
		t.Helper()
		rr := doJSONWithAuth(router, "GET", "/api/v1/users"+query, nil, admin.Token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp dto.ListUsersResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	t.Run("admin lists operators", func(t *testing.T) {
		resp := listUsers(t, "")
		assert.GreaterOrEqual(t, resp.Total, int64(1))
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, 20, resp.PageSize)
		assert.NotEmpty(t, resp.Users)

		resp = listUsers(t, "?page=1&page_size=2")
		assert.Equal(t, 2, resp.PageSize)
		assert.LessOrEqual(t, len(resp.Users), 2)
	})

	t.Run("operators cannot list others", func(t *testing.T) {
		token := registerAndLogin(t, router, "regularuser")
		rr := doJSONWithAuth(router, "GET", "/api/v1/users", nil, token)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = doJSON(router, "GET", "/api/v1/users", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("operator deletes their account", func(t *testing.T) {
		token := registerAndLogin(t, router, "deleteuser")
		rr := doJSONWithAuth(router, "PUT", "/api/v1/devices/leftover1", nil, token)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		rr = doJSONWithAuth(router, "DELETE", "/api/v1/users/me", nil, token)
		require.Equal(t, http.StatusNoContent, rr.Code)

		rr = doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "deleteuser", Password: "password123"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		// devices outlive the account; the ID stays taken
		other := registerAndLogin(t, router, "successor")
		rr = doJSONWithAuth(router, "PUT", "/api/v1/devices/leftover1", nil, other)
		assert.Equal(t, http.StatusConflict, rr.Code)

		rr = doJSON(router, "DELETE", "/api/v1/users/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
