package controlqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EternisAI/sketch-provisioner/internal/db/sqlc"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// BrokerStore writes accounts into the broker_accounts table the broker's
// auth plugin reads from.
type BrokerStore struct {
	queries *sqlc.Queries
	config  Config
}

func NewBrokerStore(queries *sqlc.Queries, config Config) *BrokerStore {
	return &BrokerStore{
		queries: queries,
		config:  config,
	}
}

func (s *BrokerStore) Enabled() bool    { return true }
func (s *BrokerStore) Endpoint() string { return s.config.Endpoint }

func (s *BrokerStore) AccountFor(owner, deviceID, accessToken string) Account {
	return NewAccount(s.config, owner, deviceID, accessToken)
}

func (s *BrokerStore) CreateAccount(ctx context.Context, account Account) error {
	if account.Name == "" || account.Username == "" || account.Password == "" {
		return fmt.Errorf("account name, username and password are required")
	}

	hash, err := hashPassword(account.Password)
	if err != nil {
		return err
	}

	err = s.queries.CreateBrokerAccount(ctx, sqlc.CreateBrokerAccountParams{
		AccountName:  account.Name,
		Username:     account.Username,
		PasswordHash: hash,
		Email:        account.Email,
		Topic:        account.Topic,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to create broker account: %w", err)
	}

	slog.Info("Control queue account created", "account", account.Name, "username", account.Username)
	return nil
}

func (s *BrokerStore) DeleteAccount(ctx context.Context, name string) error {
	n, err := s.queries.DeleteBrokerAccount(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to delete broker account: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	slog.Info("Control queue account deleted", "account", name)
	return nil
}

func (s *BrokerStore) UpdatePassword(ctx context.Context, name, password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	n, err := s.queries.UpdateBrokerAccountPassword(ctx, sqlc.UpdateBrokerAccountPasswordParams{
		AccountName:  name,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("failed to update broker account password: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	slog.Info("Control queue account password rotated", "account", name)
	return nil
}

// Authenticate checks a device login the same way the broker does.
func (s *BrokerStore) Authenticate(ctx context.Context, username, password string) (bool, error) {
	account, err := s.queries.GetBrokerAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up broker account: %w", err)
	}
	return checkPassword(password, account.PasswordHash), nil
}
