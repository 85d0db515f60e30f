package gcp

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/inventorypro/inventorypro-backend/pkg/config"
)

// ClientOptions returns credential options for Google Cloud clients. Without
// explicit credentials the application default credentials are used.
func ClientOptions(cfg config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(cfg.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(cfg.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}
