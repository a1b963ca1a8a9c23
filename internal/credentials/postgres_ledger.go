package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EternisAI/sketch-provisioner/internal/db/sqlc"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type PostgresLedger struct {
	queries *sqlc.Queries
}

func NewPostgresLedger(queries *sqlc.Queries) *PostgresLedger {
	return &PostgresLedger{queries: queries}
}

func (l *PostgresLedger) Record(ctx context.Context, grant Grant) error {
	id, err := uuid.Parse(grant.ID)
	if err != nil {
		return fmt.Errorf("invalid grant ID: %w", err)
	}

	if err := l.queries.CreateCredentialGrant(ctx, sqlc.CreateCredentialGrantParams{
		ID:        pgtype.UUID{Bytes: id, Valid: true},
		DeviceID:  grant.DeviceID,
		Owner:     grant.Owner,
		TokenUse:  string(grant.Use),
		ExpiresAt: pgtype.Timestamp{Time: grant.ExpiresAt.UTC(), Valid: true},
	}); err != nil {
		return fmt.Errorf("failed to store grant: %w", err)
	}
	return nil
}

func (l *PostgresLedger) RevokeDevice(ctx context.Context, deviceID string, keep []string) (int, error) {
	n, err := l.queries.RevokeDeviceGrants(ctx, sqlc.RevokeDeviceGrantsParams{
		DeviceID: deviceID,
		Keep:     grantUUIDs(keep),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to revoke grants: %w", err)
	}
	return int(n), nil
}

func (l *PostgresLedger) RevokeGrants(ctx context.Context, grantIDs []string) (int, error) {
	ids := grantUUIDs(grantIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := l.queries.RevokeGrants(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke grants: %w", err)
	}
	return int(n), nil
}

// grantUUIDs skips IDs that do not parse. The result is never nil so that
// it binds as an empty array rather than NULL.
func grantUUIDs(grantIDs []string) []pgtype.UUID {
	ids := make([]pgtype.UUID, 0, len(grantIDs))
	for _, s := range grantIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, pgtype.UUID{Bytes: id, Valid: true})
	}
	return ids
}

func (l *PostgresLedger) IsRevoked(ctx context.Context, grantID string) (bool, error) {
	id, err := uuid.Parse(grantID)
	if err != nil {
		return true, nil
	}

	revoked, err := l.queries.IsGrantRevoked(ctx, pgtype.UUID{Bytes: id, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("failed to look up grant: %w", err)
	}
	return revoked, nil
}

// StartCleanup deletes expired grants every interval until ctx is done.
func (l *PostgresLedger) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.queries.DeleteExpiredGrants(ctx)
			if err != nil {
				slog.Warn("Failed to delete expired credential grants", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("Deleted expired credential grants", "removed", n)
			}
		}
	}
}
