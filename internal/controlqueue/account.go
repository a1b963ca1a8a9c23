// Package controlqueue provisions per-device accounts on the MQTT broker
// that carries device commands and telemetry.
package controlqueue

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrAccountExists   = errors.New("control queue account already exists")
	ErrAccountNotFound = errors.New("control queue account not found")
	ErrDisabled        = errors.New("control queue is disabled")
)

type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	EmailDomain string `mapstructure:"email_domain"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type Account struct {
	Name     string
	Username string
	Password string
	Email    string
	Topic    string
}

type Service interface {
	Enabled() bool
	// Endpoint is the broker URL devices connect to; empty when disabled.
	Endpoint() string
	// AccountFor builds the account a device logs in with.
	AccountFor(owner, deviceID, accessToken string) Account
	CreateAccount(ctx context.Context, account Account) error
	// UpdatePassword replaces the account's password, used when a device
	// rotates its access token.
	UpdatePassword(ctx context.Context, name, password string) error
	DeleteAccount(ctx context.Context, name string) error
}

// NewAccount builds the broker account for a device. The device ID is the
// login, the access token is the password.
func NewAccount(cfg Config, owner, deviceID, accessToken string) Account {
	domain := cfg.EmailDomain
	if domain == "" {
		domain = "devices.local"
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "devices"
	}
	return Account{
		Name:     AccountName(owner, deviceID),
		Username: deviceID,
		Password: accessToken,
		Email:    deviceID + "@" + domain,
		Topic:    fmt.Sprintf("%s/%s/%s/#", prefix, owner, deviceID),
	}
}

func AccountName(owner, deviceID string) string {
	return owner + "_" + deviceID
}

// Disabled is the Service used when no broker is configured.
type Disabled struct{}

func (Disabled) Enabled() bool    { return false }
func (Disabled) Endpoint() string { return "" }

func (Disabled) AccountFor(string, string, string) Account { return Account{} }

func (Disabled) CreateAccount(context.Context, Account) error { return ErrDisabled }
func (Disabled) DeleteAccount(context.Context, string) error  { return ErrDisabled }

func (Disabled) UpdatePassword(context.Context, string, string) error { return ErrDisabled }
