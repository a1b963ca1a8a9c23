package provisioning

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindCredentialIssuance
	KindProvisioning
	KindRegistration
	KindIO
	KindPackaging
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindCredentialIssuance:
		return "credential_issuance_failure"
	case KindProvisioning:
		return "provisioning_failure"
	case KindRegistration:
		return "registration_failure"
	case KindIO:
		return "io_failure"
	case KindPackaging:
		return "packaging_failure"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidRequest     = errors.New("invalid provisioning request")
	ErrCredentialIssuance = errors.New("credential issuance failed")
	ErrProvisioning       = errors.New("control queue provisioning failed")
	ErrRegistration       = errors.New("device registration failed")
	ErrIO                 = errors.New("sketch assembly I/O failed")
	ErrPackaging          = errors.New("sketch packaging failed")
	ErrUnknownSketch      = errors.New("unknown sketch variant")
	ErrDeviceNotFound     = errors.New("device not found")

	errUnknown = errors.New("provisioning failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindCredentialIssuance:
		return ErrCredentialIssuance
	case KindProvisioning:
		return ErrProvisioning
	case KindRegistration:
		return ErrRegistration
	case KindIO:
		return ErrIO
	case KindPackaging:
		return ErrPackaging
	default:
		return errUnknown
	}
}

// Error is returned by Provision for every failure. Step names the stage
// that failed; DeviceID is empty when the failure came before one was
// minted.
type Error struct {
	Kind     Kind
	Step     string
	Owner    string
	DeviceID string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Step != "" {
		msg += " at " + e.Step
	}
	if e.DeviceID != "" {
		msg += fmt.Sprintf(" (device %s)", e.DeviceID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so callers can write
// errors.Is(err, ErrRegistration).
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}
