package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EternisAI/sketch-provisioner/internal/controlqueue"
	"github.com/EternisAI/sketch-provisioner/internal/inventory"
)

// ListDevices returns the owner's active devices of the configured type.
func (s *Service) ListDevices(ctx context.Context, owner string) ([]inventory.Device, error) {
	devices, err := s.inventory.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	result := make([]inventory.Device, 0, len(devices))
	for _, d := range devices {
		if d.Active(s.config.DeviceType) {
			result = append(result, d)
		}
	}
	return result, nil
}

// GetDevice returns the device if it belongs to owner. A device owned by
// someone else is reported as not found.
func (s *Service) GetDevice(ctx context.Context, owner, deviceID string) (*inventory.Device, error) {
	device, err := s.inventory.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, inventory.ErrDeviceNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	if device.Owner != owner {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// EnrollDevice registers a device whose identifier was handed out earlier,
// for example through a generated link.
func (s *Service) EnrollDevice(ctx context.Context, owner, deviceID, name string) (*inventory.Device, error) {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(deviceID) == "" {
		return nil, fmt.Errorf("%w: owner and device ID are required", ErrInvalidRequest)
	}

	registered, err := s.inventory.IsRegistered(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, inventory.ErrAlreadyRegistered
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = deviceID
	}
	return s.inventory.Register(ctx, inventory.Device{
		ID:        deviceID,
		Name:      name,
		Type:      s.config.DeviceType,
		Owner:     owner,
		Status:    inventory.StatusActive,
		Ownership: inventory.OwnershipBYOD,
	})
}

func (s *Service) RenameDevice(ctx context.Context, owner, deviceID, name string) (*inventory.Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}

	device, err := s.GetDevice(ctx, owner, deviceID)
	if err != nil {
		return nil, err
	}
	device.Name = name
	if err := s.inventory.Update(ctx, *device); err != nil {
		return nil, err
	}
	return s.inventory.Get(ctx, deviceID)
}

// RemoveDevice deregisters the device, revokes its credentials and deletes
// its control queue account. Revocation and account cleanup failures are
// logged; the device stays removed.
func (s *Service) RemoveDevice(ctx context.Context, owner, deviceID string) error {
	if _, err := s.GetDevice(ctx, owner, deviceID); err != nil {
		return err
	}
	if err := s.inventory.Deregister(ctx, deviceID); err != nil {
		return err
	}

	if err := s.issuer.RevokeDevice(ctx, deviceID); err != nil {
		slog.Warn("Failed to revoke device credentials", "device_id", deviceID, "error", err)
	}
	if s.queue.Enabled() {
		err := s.queue.DeleteAccount(ctx, controlqueue.AccountName(owner, deviceID))
		if err != nil && !errors.Is(err, controlqueue.ErrAccountNotFound) {
			slog.Warn("Failed to delete control queue account", "device_id", deviceID, "error", err)
		}
	}

	slog.Info("Device removed", "owner", owner, "device_id", deviceID)
	return nil
}
