package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const supportedVersion = "v1"

// Load reads and validates the config file, resolving $env secret
// references immediately.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if version != supportedVersion {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	// Custom UnmarshalJSON methods resolve env vars as this parses
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks structural requirements after env resolution.
func Validate(cfg *Config) error {
	gw := &cfg.Gateway

	if gw.Addr == "" {
		return fmt.Errorf("gateway.addr is required")
	}
	if gw.BackendBaseURL == "" {
		return fmt.Errorf("gateway.backendBaseUrl is required")
	}
	if !strings.HasPrefix(gw.BackendBaseURL, "http://") && !strings.HasPrefix(gw.BackendBaseURL, "https://") {
		return fmt.Errorf("gateway.backendBaseUrl must be an absolute http(s) URL")
	}
	if gw.PortalBaseURL != "" && !strings.HasPrefix(gw.PortalBaseURL, "http://") && !strings.HasPrefix(gw.PortalBaseURL, "https://") {
		return fmt.Errorf("gateway.portalBaseUrl must be an absolute http(s) URL when set")
	}

	switch gw.Storage {
	case "", StorageKindMemory:
		// memory is the default; no further requirements
	case StorageKindFirestore:
		if gw.GCPProject == "" {
			return fmt.Errorf("gateway.gcpProject is required for firestore storage")
		}
		if gw.FirestoreCollection == "" {
			return fmt.Errorf("gateway.firestoreCollection is required for firestore storage")
		}
		if gw.Auth.EncryptionKey == "" {
			return fmt.Errorf("gateway.auth.encryptionKey is required for firestore storage")
		}
	default:
		return fmt.Errorf("unknown storage kind: %s", gw.Storage)
	}

	if gw.Auth.GoogleClientID == "" {
		return fmt.Errorf("gateway.auth.googleClientId is required")
	}
	if gw.Auth.GoogleClientSecret == "" {
		return fmt.Errorf("gateway.auth.googleClientSecret is required")
	}
	if gw.Auth.CustomerRedirectURI == "" || gw.Auth.ManagerRedirectURI == "" {
		return fmt.Errorf("gateway.auth.customerRedirectUri and managerRedirectUri are required")
	}
	if gw.Auth.CookieSigningKey == "" {
		return fmt.Errorf("gateway.auth.cookieSigningKey is required")
	}

	for i, hash := range gw.Auth.AdminTokens {
		if !strings.HasPrefix(hash, "$2") {
			return fmt.Errorf("gateway.auth.adminTokens[%d] must be a bcrypt hash", i)
		}
	}

	return nil
}
