// Package sketch turns a template tree plus a device context into a zip
// archive the device can build and run.
package sketch

import "errors"

var (
	ErrIO         = errors.New("sketch io failure")
	ErrPackaging  = errors.New("sketch packaging failure")
	ErrScratchDir = errors.New("sketch scratch directory unavailable")
	ErrManifest   = errors.New("invalid sketch manifest")
)

// Context is the fixed set of values a sketch template may reference.
type Context struct {
	Owner                string
	DeviceID             string
	DeviceName           string
	AccessToken          string
	RefreshToken         string
	Host                 string
	ControlQueueEndpoint string
}

// Placeholder keys understood by Render, written as ${key} in templates.
const (
	KeyOwner                = "owner"
	KeyDeviceID             = "deviceId"
	KeyDeviceName           = "deviceName"
	KeyAccessToken          = "accessToken"
	KeyRefreshToken         = "refreshToken"
	KeyHost                 = "host"
	KeyControlQueueEndpoint = "controlQueueEndpoint"
)

func (c Context) Vars() map[string]string {
	return map[string]string{
		KeyOwner:                c.Owner,
		KeyDeviceID:             c.DeviceID,
		KeyDeviceName:           c.DeviceName,
		KeyAccessToken:          c.AccessToken,
		KeyRefreshToken:         c.RefreshToken,
		KeyHost:                 c.Host,
		KeyControlQueueEndpoint: c.ControlQueueEndpoint,
	}
}
