package env

import (
	"os"
	"strings"
)

// Prefix namespaces every variable the services read.
const Prefix = "INVENTORYPRO_"

// Get looks up Prefix+key first and falls back to the bare key, so shared
// variables such as LOG_FORMAT work without the prefix.
func Get(key, fallback string) string {
	key = strings.TrimPrefix(key, Prefix)
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
