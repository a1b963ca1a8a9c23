package tests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	return doJSONWithAuth(router, method, path, body, "")
}

func doJSONWithAuth(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func registerAndLogin(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	body := dto.RegisterRequest{Username: username, Password: "password123"}
	rr := doJSON(router, "POST", "/auth/register", body)
	require.Equal(t, 201, rr.Code, rr.Body.String())

	rr = doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: username, Password: "password123"})
	require.Equal(t, 200, rr.Code, rr.Body.String())

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}
