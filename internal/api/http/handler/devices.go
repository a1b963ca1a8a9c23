package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
	"github.com/EternisAI/sketch-provisioner/internal/api/http/middleware"
	"github.com/EternisAI/sketch-provisioner/internal/inventory"
	"github.com/gin-gonic/gin"
)

type DeviceManager interface {
	ListDevices(ctx context.Context, owner string) ([]inventory.Device, error)
	GetDevice(ctx context.Context, owner, deviceID string) (*inventory.Device, error)
	EnrollDevice(ctx context.Context, owner, deviceID, name string) (*inventory.Device, error)
	RenameDevice(ctx context.Context, owner, deviceID, name string) (*inventory.Device, error)
	RemoveDevice(ctx context.Context, owner, deviceID string) error
}

type DeviceHandler struct {
	devices DeviceManager
}

func NewDeviceHandler(devices DeviceManager) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.devices.ListDevices(c.Request.Context(), c.GetString(middleware.KeyUsername))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.ListDevicesResponse{Devices: make([]dto.DeviceResponse, len(devices)), Count: len(devices)}
	for i, d := range devices {
		resp.Devices[i] = toDeviceResponse(d)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, err := h.devices.GetDevice(c.Request.Context(), c.GetString(middleware.KeyUsername), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceResponse(*device))
}

// EnrollDevice registers a device by ID; 409 when it is already enrolled.
func (h *DeviceHandler) EnrollDevice(c *gin.Context) {
	device, err := h.devices.EnrollDevice(c.Request.Context(), c.GetString(middleware.KeyUsername), c.Param("id"), c.Query("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDeviceResponse(*device))
}

func (h *DeviceHandler) RenameDevice(c *gin.Context) {
	var req dto.RenameDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.devices.RenameDevice(c.Request.Context(), c.GetString(middleware.KeyUsername), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceResponse(*device))
}

func (h *DeviceHandler) RemoveDevice(c *gin.Context) {
	if err := h.devices.RemoveDevice(c.Request.Context(), c.GetString(middleware.KeyUsername), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toDeviceResponse(d inventory.Device) dto.DeviceResponse {
	return dto.DeviceResponse{
		ID:         d.ID,
		Name:       d.Name,
		Type:       d.Type,
		Owner:      d.Owner,
		Status:     string(d.Status),
		Ownership:  string(d.Ownership),
		EnrolledAt: d.EnrolledAt.Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}
