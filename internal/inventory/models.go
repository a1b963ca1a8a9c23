package inventory

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRemoved  Status = "removed"
)

type Ownership string

const (
	OwnershipBYOD Ownership = "BYOD"
	OwnershipCOPE Ownership = "COPE"
)

type Device struct {
	ID         string
	Name       string
	Type       string
	Owner      string
	Status     Status
	Ownership  Ownership
	EnrolledAt time.Time
	UpdatedAt  time.Time
}

// Active reports whether the device is enrolled and of the given type.
func (d Device) Active(deviceType string) bool {
	return d.Status == StatusActive && d.Type == deviceType
}
