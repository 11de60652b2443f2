package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// UnmarshalJSON resolves a {"$env": "VAR_NAME"} reference at load time.
// Literal secret values in the config file are rejected.
func (s *Secret) UnmarshalJSON(data []byte) error {
	var ref struct {
		Env string `json:"$env"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		var literal string
		if json.Unmarshal(data, &literal) == nil {
			return fmt.Errorf("secret values must use {\"$env\": \"VAR_NAME\"} references")
		}
		return fmt.Errorf("invalid secret reference: %w", err)
	}
	if ref.Env == "" {
		return fmt.Errorf("secret reference missing $env key")
	}

	value, ok := os.LookupEnv(ref.Env)
	if !ok {
		return fmt.Errorf("environment variable %s is not set", ref.Env)
	}
	*s = Secret(value)
	return nil
}

// StorageKind selects the persistence backend
type StorageKind string

const (
	StorageKindMemory    StorageKind = "memory"
	StorageKindFirestore StorageKind = "firestore"
)

// AuthConfig holds everything login-related: the Google OAuth app, the keys
// protecting persisted and cookie state, and the admin surface.
type AuthConfig struct {
	GoogleClientID      Secret `json:"googleClientId"`
	GoogleClientSecret  Secret `json:"googleClientSecret"`
	CustomerRedirectURI string `json:"customerRedirectUri"`
	ManagerRedirectURI  string `json:"managerRedirectUri"`

	// CookieSigningKey signs the admin session cookie
	CookieSigningKey Secret `json:"cookieSigningKey"`

	// EncryptionKey protects access tokens at rest; required outside
	// memory storage
	EncryptionKey Secret `json:"encryptionKey"`

	// AdminTokens are bcrypt hashes of static bearer tokens accepted on
	// the admin endpoints in addition to the admin cookie
	AdminTokens []string `json:"adminTokens,omitempty"`

	// AdminCookieTTL bounds how long an admin login stays valid
	AdminCookieTTL Duration `json:"adminCookieTtl,omitempty"`
}

// GatewayConfig is the top-level service configuration
type GatewayConfig struct {
	Addr           string   `json:"addr"`
	PortalBaseURL  string   `json:"portalBaseUrl"`
	BackendBaseURL string   `json:"backendBaseUrl"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	Storage             StorageKind `json:"storage,omitempty"`
	GCPProject          string      `json:"gcpProject,omitempty"`
	FirestoreDatabase   string      `json:"firestoreDatabase,omitempty"`
	FirestoreCollection string      `json:"firestoreCollection,omitempty"`

	Auth AuthConfig `json:"auth"`
}

// Config is the root of the config file
type Config struct {
	Version string        `json:"version"`
	Gateway GatewayConfig `json:"gateway"`
}

// Duration wraps time.Duration with "24h"-style JSON strings
type Duration time.Duration

// UnmarshalJSON parses a Go duration string
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON renders the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
