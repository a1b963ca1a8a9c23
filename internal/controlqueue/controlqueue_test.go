package controlqueue

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	cfg := Config{Enabled: true, EmailDomain: "iot.example.org", TopicPrefix: "fleet"}

	a := NewAccount(cfg, "alice", "k3j9x", "token-value")
	assert.Equal(t, "alice_k3j9x", a.Name)
	assert.Equal(t, "k3j9x", a.Username)
	assert.Equal(t, "token-value", a.Password)
	assert.Equal(t, "k3j9x@iot.example.org", a.Email)
	assert.Equal(t, "fleet/alice/k3j9x/#", a.Topic)
}

func TestNewAccountDefaults(t *testing.T) {
	a := NewAccount(Config{}, "bob", "dev1", "t")
	assert.Equal(t, "dev1@devices.local", a.Email)
	assert.Equal(t, "devices/bob/dev1/#", a.Topic)
}

func TestBrokerStoreAccountFor(t *testing.T) {
	s := NewBrokerStore(nil, Config{Enabled: true, Endpoint: "tcp://broker:1883", TopicPrefix: "fleet"})
	assert.True(t, s.Enabled())
	assert.Equal(t, "tcp://broker:1883", s.Endpoint())
	assert.Equal(t, "fleet/alice/dev1/#", s.AccountFor("alice", "dev1", "token").Topic)
}

func TestDisabled(t *testing.T) {
	var svc Service = Disabled{}
	assert.False(t, svc.Enabled())
	assert.Empty(t, svc.Endpoint())
	assert.Equal(t, Account{}, svc.AccountFor("alice", "dev1", "token"))
	assert.ErrorIs(t, svc.CreateAccount(context.Background(), Account{}), ErrDisabled)
	assert.ErrorIs(t, svc.DeleteAccount(context.Background(), "x"), ErrDisabled)
	assert.ErrorIs(t, svc.UpdatePassword(context.Background(), "x", "token"), ErrDisabled)
}

func TestBrokerStoreUpdatePasswordRequiresPassword(t *testing.T) {
	s := NewBrokerStore(nil, Config{Enabled: true})
	assert.Error(t, s.UpdatePassword(context.Background(), "alice_dev1", ""))
}

func TestHashPassword(t *testing.T) {
	// device passwords are JWTs, well past bcrypt's 72 byte limit
	password := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 10)

	hash, err := hashPassword(password)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "PBKDF2$sha512$100000$"))
	assert.NotContains(t, hash, password)

	assert.True(t, checkPassword(password, hash))
	assert.False(t, checkPassword(password+"x", hash))
	assert.False(t, checkPassword("", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := hashPassword("same")
	require.NoError(t, err)
	b, err := hashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCheckPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"$2a$10$abcdef",
		"PBKDF2$sha256$1000$c2FsdA==$aGFzaA==",
		"PBKDF2$sha512$notanumber$c2FsdA==$aGFzaA==",
		"PBKDF2$sha512$1000$!!!$aGFzaA==",
	} {
		assert.False(t, checkPassword("pw", encoded), encoded)
	}
}
