package tests

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/EternisAI/sketch-provisioner/internal/controlqueue"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SketchTemplate is the rendered file the provisioning tests read the
// device context back from.
const SketchTemplate = "owner=${owner}\n" +
	"device=${deviceId}\n" +
	"name=${deviceName}\n" +
	"access=${accessToken}\n" +
	"refresh=${refreshToken}\n" +
	"host=${host}\n" +
	"queue=${controlQueueEndpoint}\n"

func TestProvisioning(t *testing.T, router *gin.Engine, broker *controlqueue.BrokerStore, queueEndpoint string) {
	token := registerAndLogin(t, router, "maker")

	t.Run("list sketches", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/api/v1/sketches", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ListSketchesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Contains(t, resp.Sketches, "blink")
	})

	t.Run("unknown sketch", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/api/v1/sketches/missing/download", nil, token)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("download without token", func(t *testing.T) {
		rr := doJSON(router, "GET", "/api/v1/sketches/blink/download", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	rr := doJSONWithAuth(router, "GET", "/api/v1/sketches/blink/download?name=kitchen", nil, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	deviceID := rr.Header().Get("X-Device-ID")
	require.NotEmpty(t, deviceID)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "blink.zip")

	rendered := readRendered(t, rr.Body.Bytes())

	t.Run("archive carries the device context", func(t *testing.T) {
		assert.Equal(t, "maker", rendered["owner"])
		assert.Equal(t, deviceID, rendered["device"])
		assert.Equal(t, "kitchen", rendered["name"])
		assert.Equal(t, queueEndpoint, rendered["queue"])
		assert.NotEmpty(t, rendered["access"])
		assert.NotEmpty(t, rendered["refresh"])
		assert.NotEmpty(t, rendered["host"])
	})

	t.Run("control queue account accepts the access token", func(t *testing.T) {
		ok, err := broker.Authenticate(context.Background(), deviceID, rendered["access"])
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = broker.Authenticate(context.Background(), deviceID, "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("device is listed for its owner only", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/api/v1/devices", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ListDevicesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, deviceID, resp.Devices[0].ID)
		assert.Equal(t, "kitchen", resp.Devices[0].Name)
		assert.Equal(t, "active", resp.Devices[0].Status)
		assert.Equal(t, "BYOD", resp.Devices[0].Ownership)

		other := registerAndLogin(t, router, "neighbour")
		rr = doJSONWithAuth(router, "GET", "/api/v1/devices/"+deviceID, nil, other)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	refreshToken := rendered["refresh"]
	accessToken := rendered["access"]
	t.Run("refresh rotates the device tokens", func(t *testing.T) {
		rr := doJSON(router, "POST", "/api/v1/device-tokens/refresh", dto.RefreshDeviceTokenRequest{RefreshToken: refreshToken})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp dto.DeviceTokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, deviceID, resp.DeviceID)

		rr = doJSON(router, "POST", "/api/v1/device-tokens/refresh", dto.RefreshDeviceTokenRequest{RefreshToken: refreshToken})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		// the broker follows the rotation
		ok, err := broker.Authenticate(context.Background(), deviceID, resp.AccessToken)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = broker.Authenticate(context.Background(), deviceID, rendered["access"])
		require.NoError(t, err)
		assert.False(t, ok)

		refreshToken = resp.RefreshToken
		accessToken = resp.AccessToken
	})

	t.Run("rename device", func(t *testing.T) {
		rr := doJSONWithAuth(router, "PATCH", "/api/v1/devices/"+deviceID, dto.RenameDeviceRequest{Name: "garage"}, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp dto.DeviceResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "garage", resp.Name)
	})

	t.Run("remove device revokes everything", func(t *testing.T) {
		rr := doJSONWithAuth(router, "DELETE", "/api/v1/devices/"+deviceID, nil, token)
		require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

		rr = doJSONWithAuth(router, "GET", "/api/v1/devices/"+deviceID, nil, token)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = doJSON(router, "POST", "/api/v1/device-tokens/refresh", dto.RefreshDeviceTokenRequest{RefreshToken: refreshToken})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		ok, err := broker.Authenticate(context.Background(), deviceID, accessToken)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEnrollDevice(t *testing.T, router *gin.Engine) {
	token := registerAndLogin(t, router, "enroller")

	rr := doJSONWithAuth(router, "PUT", "/api/v1/devices/handmade1?name=porch", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp dto.DeviceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "handmade1", resp.ID)
	assert.Equal(t, "porch", resp.Name)

	rr = doJSONWithAuth(router, "PUT", "/api/v1/devices/handmade1", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func readRendered(t *testing.T, archive []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	var content string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name != "main.ino" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		content = string(data)
	}
	assert.NotContains(t, names, "sketch.properties")
	require.NotEmpty(t, content, "archive has no main.ino: %v", names)

	values := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		key, value, _ := strings.Cut(line, "=")
		values[key] = value
	}
	return values
}
