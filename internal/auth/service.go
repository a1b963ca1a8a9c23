package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/EternisAI/sketch-provisioner/internal/db/sqlc"
	"github.com/EternisAI/sketch-provisioner/internal/users"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type RegisterResult struct {
	ID       string
	Username string
	Role     string
}

// Service registers operators and signs them in.
type Service struct {
	queries *sqlc.Queries
	config  Config
}

func NewService(queries *sqlc.Queries, config Config) *Service {
	return &Service{
		queries: queries,
		config:  config,
	}
}

// Register creates an operator with the User role. The username becomes the
// owner of every device the operator provisions.
func (s *Service) Register(ctx context.Context, username, password string) (RegisterResult, error) {
	if err := users.ValidateOwnerName(username); err != nil {
		return RegisterResult{}, err
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		if errors.Is(err, users.ErrPasswordTooLong) {
			return RegisterResult{}, err
		}
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.queries.CreateUser(ctx, sqlc.CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		Role:         users.RoleUser,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return RegisterResult{}, ErrUsernameExists
		}
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	return RegisterResult{
		ID:       uuid.UUID(user.ID.Bytes).String(),
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// Login returns a session token whose username claim scopes the operator's
// device and sketch requests.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("query user: %w", err)
	}

	if !users.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.config, uuid.UUID(user.ID.Bytes).String(), user.Username, user.Role)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}
