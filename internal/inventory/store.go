// Package inventory keeps track of enrolled devices.
package inventory

import (
	"context"
	"errors"
)

var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrAlreadyRegistered = errors.New("device already registered")
	ErrInvalidDevice     = errors.New("invalid device")
)

// Store is the device registry. Deregistered devices are treated as absent
// by every method and may be registered again under the same ID.
type Store interface {
	IsRegistered(ctx context.Context, id string) (bool, error)
	Register(ctx context.Context, device Device) (*Device, error)
	Deregister(ctx context.Context, id string) error
	Update(ctx context.Context, device Device) error
	Get(ctx context.Context, id string) (*Device, error)
	ListByOwner(ctx context.Context, owner string) ([]Device, error)
}

func validate(d Device) error {
	switch {
	case d.ID == "":
		return errors.Join(ErrInvalidDevice, errors.New("id is required"))
	case d.Owner == "":
		return errors.Join(ErrInvalidDevice, errors.New("owner is required"))
	case d.Status != StatusActive && d.Status != StatusInactive:
		return errors.Join(ErrInvalidDevice, errors.New("status must be active or inactive"))
	case d.Ownership != OwnershipBYOD && d.Ownership != OwnershipCOPE:
		return errors.Join(ErrInvalidDevice, errors.New("ownership must be BYOD or COPE"))
	}
	return nil
}
