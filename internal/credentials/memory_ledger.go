package credentials

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type MemoryLedger struct {
	mu     sync.RWMutex
	grants map[string]*Grant
	now    func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		grants: make(map[string]*Grant),
		now:    time.Now,
	}
}

func (l *MemoryLedger) Record(_ context.Context, grant Grant) error {
	l.mu.Lock()
	l.grants[grant.ID] = &grant
	l.mu.Unlock()
	return nil
}

func (l *MemoryLedger) RevokeDevice(_ context.Context, deviceID string, keep []string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	now := l.now()
	revoked := 0
	for _, g := range l.grants {
		if g.DeviceID == deviceID && g.RevokedAt == nil && !kept[g.ID] {
			g.RevokedAt = &now
			revoked++
		}
	}
	return revoked, nil
}

func (l *MemoryLedger) RevokeGrants(_ context.Context, grantIDs []string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	revoked := 0
	for _, id := range grantIDs {
		if g, ok := l.grants[id]; ok && g.RevokedAt == nil {
			g.RevokedAt = &now
			revoked++
		}
	}
	return revoked, nil
}

// IsRevoked treats grants it has never seen, or has already swept, as
// revoked.
func (l *MemoryLedger) IsRevoked(_ context.Context, grantID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	g, ok := l.grants[grantID]
	if !ok {
		return true, nil
	}
	return g.RevokedAt != nil, nil
}

// Grants lists the grants recorded for deviceID.
func (l *MemoryLedger) Grants(deviceID string) []Grant {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Grant
	for _, g := range l.grants {
		if g.DeviceID == deviceID {
			result = append(result, *g)
		}
	}
	return result
}

// StartCleanup drops expired grants every interval until ctx is done.
func (l *MemoryLedger) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *MemoryLedger) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, g := range l.grants {
		if now.After(g.ExpiresAt) {
			delete(l.grants, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Cleaned up expired credential grants", "removed", removed)
	}
}
