package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/EternisAI/sketch-provisioner/internal/credentials"
	"github.com/EternisAI/sketch-provisioner/internal/inventory"
	"github.com/EternisAI/sketch-provisioner/internal/provisioning"
	"github.com/gin-gonic/gin"
)

// First match wins, so more specific errors come first.
var errorStatuses = []struct {
	err    error
	status int
}{
	{provisioning.ErrUnknownSketch, http.StatusNotFound},
	{provisioning.ErrDeviceNotFound, http.StatusNotFound},
	{inventory.ErrDeviceNotFound, http.StatusNotFound},
	{inventory.ErrAlreadyRegistered, http.StatusConflict},
	{inventory.ErrInvalidDevice, http.StatusBadRequest},
	{provisioning.ErrInvalidRequest, http.StatusBadRequest},
	{credentials.ErrInvalidToken, http.StatusUnauthorized},
	{credentials.ErrTokenRevoked, http.StatusUnauthorized},
	{provisioning.ErrCredentialIssuance, http.StatusBadGateway},
	{provisioning.ErrProvisioning, http.StatusBadGateway},
	{provisioning.ErrRegistration, http.StatusBadGateway},
	{provisioning.ErrIO, http.StatusInternalServerError},
	{provisioning.ErrPackaging, http.StatusInternalServerError},
}

func errorStatus(err error) (int, error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.err
		}
	}
	return http.StatusInternalServerError, nil
}

// writeError maps service errors to a status code and a JSON body. Client
// errors echo the message; server errors only name the failure, the cause
// goes to the log.
func writeError(c *gin.Context, err error) {
	status, matched := errorStatus(err)

	message := "internal error"
	switch {
	case status < http.StatusInternalServerError:
		message = err.Error()
	case matched != nil:
		message = matched.Error()
	}

	body := gin.H{"error": message}
	if kind := provisioning.KindOf(err); kind != provisioning.KindUnknown {
		body["kind"] = kind.String()
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	_ = c.Error(err)
	c.JSON(status, body)
}
