package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for tests and single-node setups.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[string]*Device
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string]*Device),
		now:     time.Now,
	}
}

func (s *MemoryStore) IsRegistered(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	return ok && d.Status != StatusRemoved, nil
}

func (s *MemoryStore) Register(_ context.Context, device Device) (*Device, error) {
	if err := validate(device); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.devices[device.ID]; ok && existing.Status != StatusRemoved {
		return nil, ErrAlreadyRegistered
	}

	now := s.now()
	device.EnrolledAt = now
	device.UpdatedAt = now
	stored := device
	s.devices[device.ID] = &stored

	result := stored
	return &result, nil
}

func (s *MemoryStore) Deregister(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok || d.Status == StatusRemoved {
		return ErrDeviceNotFound
	}
	d.Status = StatusRemoved
	d.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, device Device) error {
	if err := validate(device); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[device.ID]
	if !ok || d.Status == StatusRemoved {
		return ErrDeviceNotFound
	}
	d.Name = device.Name
	d.Status = device.Status
	d.Ownership = device.Ownership
	d.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok || d.Status == StatusRemoved {
		return nil, ErrDeviceNotFound
	}
	result := *d
	return &result, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, owner string) ([]Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Device
	for _, d := range s.devices {
		if d.Owner == owner && d.Status != StatusRemoved {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EnrolledAt.Equal(result[j].EnrolledAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].EnrolledAt.After(result[j].EnrolledAt)
	})
	return result, nil
}
