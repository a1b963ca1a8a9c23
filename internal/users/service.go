// Package users manages the operators who own provisioned devices.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EternisAI/sketch-provisioner/internal/db/sqlc"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

var ErrUserNotFound = errors.New("user not found")

type UserInfo struct {
	ID        string
	Username  string
	Role      string
	CreatedAt time.Time
}

type Service struct {
	queries *sqlc.Queries
}

func NewService(queries *sqlc.Queries) *Service {
	return &Service{queries: queries}
}

// DeleteUser removes the operator account. Devices they own stay in the
// inventory until removed explicitly.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return ErrUserNotFound
	}

	n, err := s.queries.DeleteUser(ctx, pgtype.UUID{Bytes: parsed, Valid: true})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]UserInfo, int64, error) {
	dbUsers, err := s.queries.ListUsersPaginated(ctx, sqlc.ListUsersPaginatedParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	total, err := s.queries.CountUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	result := make([]UserInfo, len(dbUsers))
	for i, u := range dbUsers {
		result[i] = UserInfo{
			ID:        uuid.UUID(u.ID.Bytes).String(),
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: u.CreatedAt.Time,
		}
	}
	return result, total, nil
}
