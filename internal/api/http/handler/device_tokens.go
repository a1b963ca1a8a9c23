package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/EternisAI/sketch-provisioner/internal/credentials"
	"github.com/gin-gonic/gin"
)

// TokenRefresher rotates a device's token pair and returns it with the
// device ID.
type TokenRefresher interface {
	RefreshDeviceToken(ctx context.Context, refreshToken string) (credentials.Pair, string, error)
}

// DeviceTokenHandler serves devices, which authenticate with their refresh
// token rather than an operator session.
type DeviceTokenHandler struct {
	refresher TokenRefresher
}

func NewDeviceTokenHandler(refresher TokenRefresher) *DeviceTokenHandler {
	return &DeviceTokenHandler{refresher: refresher}
}

func (h *DeviceTokenHandler) Refresh(c *gin.Context) {
	var req dto.RefreshDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, deviceID, err := h.refresher.RefreshDeviceToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeviceTokenResponse{
		DeviceID:         deviceID,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt.Format(time.RFC3339),
		RefreshExpiresAt: pair.RefreshExpiresAt.Format(time.RFC3339),
	})
}
