package provisioning

import (
	"log/slog"
	"os"
	"strings"
)

// ResolveHost picks the host name baked into sketches: the configured
// value, else the machine's host name, else localhost.
func ResolveHost(configured string) string {
	if host := strings.TrimSpace(configured); host != "" {
		return host
	}
	return resolveHost(os.Hostname)
}

func resolveHost(hostname func() (string, error)) string {
	host, err := hostname()
	if err != nil || host == "" {
		slog.Warn("Failed to resolve local host name, using localhost", "error", err)
		return "localhost"
	}
	return host
}
