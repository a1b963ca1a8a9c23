package provisioning

import (
	"context"
	"errors"
	"log/slog"

	"github.com/EternisAI/sketch-provisioner/internal/controlqueue"
	"github.com/EternisAI/sketch-provisioner/internal/credentials"
)

// RefreshDeviceToken rotates a device's token pair. The control queue
// account password follows the new access token before the old grants are
// revoked, so a failure at any step leaves the device with a working pair.
func (s *Service) RefreshDeviceToken(ctx context.Context, refreshToken string) (credentials.Pair, string, error) {
	pair, err := s.issuer.Renew(ctx, refreshToken)
	if err != nil {
		return credentials.Pair{}, "", err
	}

	fail := func(kind Kind, step string, cause error) error {
		if rerr := s.issuer.RevokeGrants(context.WithoutCancel(ctx), pair.GrantIDs...); rerr != nil {
			slog.Warn("Failed to revoke renewed credentials", "device_id", pair.DeviceID, "error", rerr)
		}
		slog.Error("Token refresh failed", "step", step, "owner", pair.Owner, "device_id", pair.DeviceID, "error", cause)
		return &Error{Kind: kind, Step: step, Owner: pair.Owner, DeviceID: pair.DeviceID, Err: cause}
	}

	if s.queue.Enabled() {
		name := controlqueue.AccountName(pair.Owner, pair.DeviceID)
		err := s.queue.UpdatePassword(ctx, name, pair.AccessToken)
		switch {
		case errors.Is(err, controlqueue.ErrAccountNotFound):
			slog.Warn("Device has no control queue account", "device_id", pair.DeviceID, "account", name)
		case err != nil:
			return credentials.Pair{}, "", fail(KindProvisioning, "update_control_queue_password", err)
		}
	}

	if err := s.issuer.Supersede(ctx, pair); err != nil {
		// the broker already holds the new token; the old refresh token
		// stays usable for a retry
		return credentials.Pair{}, "", &Error{Kind: KindCredentialIssuance, Step: "revoke_superseded_credentials", Owner: pair.Owner, DeviceID: pair.DeviceID, Err: err}
	}

	slog.Info("Device tokens refreshed", "owner", pair.Owner, "device_id", pair.DeviceID)
	return pair, pair.DeviceID, nil
}
