// Package credentials issues and revokes the token pairs devices use to
// talk back to the platform.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid device token")
	ErrTokenRevoked = errors.New("device token revoked")
)

type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseRefresh TokenUse = "refresh"
)

type Config struct {
	SigningKey string        `mapstructure:"signing_key" validate:"required,min=32"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// Pair is one issued access/refresh couple. GrantIDs holds the ledger IDs of
// exactly these two tokens.
type Pair struct {
	Owner            string
	DeviceID         string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	GrantIDs         []string
}

type Claims struct {
	Owner string   `json:"owner"`
	Use   TokenUse `json:"use"`
	jwt.RegisteredClaims
}

// Grant is the ledger record of one issued token.
type Grant struct {
	ID        string
	DeviceID  string
	Owner     string
	Use       TokenUse
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Ledger remembers issued grants so that tokens can be revoked before they
// expire.
type Ledger interface {
	Record(ctx context.Context, grant Grant) error
	// RevokeDevice revokes the device's grants except those listed in keep.
	RevokeDevice(ctx context.Context, deviceID string, keep []string) (int, error)
	RevokeGrants(ctx context.Context, grantIDs []string) (int, error)
	IsRevoked(ctx context.Context, grantID string) (bool, error)
}

// Authority signs device token pairs with HS256.
type Authority struct {
	config Config
	ledger Ledger
	now    func() time.Time
}

func NewAuthority(config Config, ledger Ledger) *Authority {
	if config.AccessTTL <= 0 {
		config.AccessTTL = 24 * time.Hour
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = 30 * 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "sketch-provisioner"
	}
	return &Authority{
		config: config,
		ledger: ledger,
		now:    time.Now,
	}
}

// Issue mints an access/refresh pair scoped to (owner, deviceID).
func (a *Authority) Issue(ctx context.Context, owner, deviceID string) (Pair, error) {
	if owner == "" || deviceID == "" {
		return Pair{}, fmt.Errorf("owner and device id are required")
	}

	now := a.now()
	access, accessExp, accessGrant, err := a.sign(ctx, owner, deviceID, UseAccess, now, a.config.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, refreshGrant, err := a.sign(ctx, owner, deviceID, UseRefresh, now, a.config.RefreshTTL)
	if err != nil {
		// the access grant is already recorded
		if _, rerr := a.ledger.RevokeGrants(context.WithoutCancel(ctx), []string{accessGrant}); rerr != nil {
			slog.Warn("Failed to revoke orphaned access grant", "device_id", deviceID, "error", rerr)
		}
		return Pair{}, err
	}

	slog.Info("Device credentials issued", "device_id", deviceID, "owner", owner, "access_expires_at", accessExp)
	return Pair{
		Owner:            owner,
		DeviceID:         deviceID,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		GrantIDs:         []string{accessGrant, refreshGrant},
	}, nil
}

func (a *Authority) sign(ctx context.Context, owner, deviceID string, use TokenUse, now time.Time, ttl time.Duration) (string, time.Time, string, error) {
	expiresAt := now.Add(ttl)
	grantID := uuid.NewString()

	claims := Claims{
		Owner: owner,
		Use:   use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        grantID,
			Subject:   deviceID,
			Issuer:    a.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.config.SigningKey))
	if err != nil {
		return "", time.Time{}, "", fmt.Errorf("sign %s token: %w", use, err)
	}

	if err := a.ledger.Record(ctx, Grant{
		ID:        grantID,
		DeviceID:  deviceID,
		Owner:     owner,
		Use:       use,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", time.Time{}, "", fmt.Errorf("record %s grant: %w", use, err)
	}

	return signed, expiresAt, grantID, nil
}

// Validate checks signature, expiry, intended use and revocation.
func (a *Authority) Validate(ctx context.Context, token string, use TokenUse) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.config.SigningKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.config.Issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Use != use {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, use)
	}

	revoked, err := a.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RevokeDevice invalidates every outstanding grant of deviceID.
func (a *Authority) RevokeDevice(ctx context.Context, deviceID string) error {
	n, err := a.ledger.RevokeDevice(ctx, deviceID, nil)
	if err != nil {
		return fmt.Errorf("revoke device credentials: %w", err)
	}
	slog.Info("Device credentials revoked", "device_id", deviceID, "grants", n)
	return nil
}

// RevokeGrants invalidates the listed grants only. Other grants of the same
// device stay valid.
func (a *Authority) RevokeGrants(ctx context.Context, grantIDs ...string) error {
	if len(grantIDs) == 0 {
		return nil
	}
	n, err := a.ledger.RevokeGrants(ctx, grantIDs)
	if err != nil {
		return fmt.Errorf("revoke credential grants: %w", err)
	}
	slog.Info("Credential grants revoked", "grants", n)
	return nil
}

// Renew validates a refresh token and mints a fresh pair for the same owner
// and device. Earlier grants stay valid until Supersede is called, so a
// caller can still back out by revoking the new pair.
func (a *Authority) Renew(ctx context.Context, refreshToken string) (Pair, error) {
	claims, err := a.Validate(ctx, refreshToken, UseRefresh)
	if err != nil {
		return Pair{}, err
	}
	return a.Issue(ctx, claims.Owner, claims.Subject)
}

// Supersede revokes every grant of the pair's device except the pair itself.
func (a *Authority) Supersede(ctx context.Context, pair Pair) error {
	n, err := a.ledger.RevokeDevice(ctx, pair.DeviceID, pair.GrantIDs)
	if err != nil {
		return fmt.Errorf("revoke superseded credentials: %w", err)
	}
	slog.Info("Superseded device credentials revoked", "device_id", pair.DeviceID, "grants", n)
	return nil
}
