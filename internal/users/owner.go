package users

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidUsername is returned for names that cannot serve as a device
// owner.
var ErrInvalidUsername = errors.New("username must be 3-64 characters of lowercase letters, digits, dots or hyphens")

var validate = validator.New()

// ValidateOwnerName checks a username before it becomes an owner. Owners
// are embedded in broker account names (owner_device) and topics
// (prefix/owner/device/#), so separators and wildcards are refused.
func ValidateOwnerName(name string) error {
	if name != strings.ToLower(name) {
		return ErrInvalidUsername
	}
	if err := validate.Var(name, "required,min=3,max=64,hostname_rfc1123"); err != nil {
		return ErrInvalidUsername
	}
	return nil
}
