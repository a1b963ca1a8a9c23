package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EternisAI/sketch-provisioner/internal/db/sqlc"
	"github.com/jackc/pgx/v5"
)

type PostgresStore struct {
	queries *sqlc.Queries
}

func NewPostgresStore(queries *sqlc.Queries) *PostgresStore {
	return &PostgresStore{queries: queries}
}

func (s *PostgresStore) IsRegistered(ctx context.Context, id string) (bool, error) {
	registered, err := s.queries.IsDeviceRegistered(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check device registration: %w", err)
	}
	return registered, nil
}

func (s *PostgresStore) Register(ctx context.Context, device Device) (*Device, error) {
	if err := validate(device); err != nil {
		return nil, err
	}

	dbDevice, err := s.queries.RegisterDevice(ctx, sqlc.RegisterDeviceParams{
		ID:         device.ID,
		Name:       device.Name,
		DeviceType: device.Type,
		Owner:      device.Owner,
		Status:     string(device.Status),
		Ownership:  string(device.Ownership),
	})
	if err != nil {
		// ON CONFLICT ... WHERE status = 'removed' yields no row for a live device.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	slog.Info("Device registered", "device_id", dbDevice.ID, "owner", dbDevice.Owner, "type", dbDevice.DeviceType)
	result := fromRow(dbDevice)
	return &result, nil
}

func (s *PostgresStore) Deregister(ctx context.Context, id string) error {
	n, err := s.queries.DeregisterDevice(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to deregister device: %w", err)
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	slog.Info("Device deregistered", "device_id", id)
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, device Device) error {
	if err := validate(device); err != nil {
		return err
	}

	n, err := s.queries.UpdateDevice(ctx, sqlc.UpdateDeviceParams{
		ID:        device.ID,
		Name:      device.Name,
		Status:    string(device.Status),
		Ownership: string(device.Ownership),
	})
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Device, error) {
	dbDevice, err := s.queries.GetDevice(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	result := fromRow(dbDevice)
	return &result, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner string) ([]Device, error) {
	dbDevices, err := s.queries.ListDevicesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, len(dbDevices))
	for i, d := range dbDevices {
		result[i] = fromRow(d)
	}
	return result, nil
}

func fromRow(d sqlc.Device) Device {
	return Device{
		ID:         d.ID,
		Name:       d.Name,
		Type:       d.DeviceType,
		Owner:      d.Owner,
		Status:     Status(d.Status),
		Ownership:  Ownership(d.Ownership),
		EnrolledAt: d.EnrolledAt.Time,
		UpdatedAt:  d.UpdatedAt.Time,
	}
}
