package gcp

import (
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// gcsClientOptions returns the options for a real GCS client. Inline JSON
// credentials take precedence over a key file path; with neither set the
// client falls back to application default credentials.
func gcsClientOptions(env func(string) string) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if raw := strings.TrimSpace(env("GOOGLE_APPLICATION_CREDENTIALS_JSON")); raw != "" {
		return append(opts, option.WithCredentialsJSON([]byte(raw)))
	}
	if path := strings.TrimSpace(env("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		if strings.HasPrefix(path, "{") {
			return append(opts, option.WithCredentialsJSON([]byte(path)))
		}
		return append(opts, option.WithCredentialsFile(path))
	}
	return opts
}
