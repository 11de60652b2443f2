package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validConfig = `{
  "version": "v1",
  "gateway": {
    "addr": ":8080",
    "portalBaseUrl": "https://portal.homeshine.io",
    "backendBaseUrl": "https://api.homeshine.io",
    "auth": {
      "googleClientId": {"$env": "TEST_GOOGLE_CLIENT_ID"},
      "googleClientSecret": {"$env": "TEST_GOOGLE_CLIENT_SECRET"},
      "customerRedirectUri": "https://portal.homeshine.io/customers/auth/google/callback",
      "managerRedirectUri": "https://portal.homeshine.io/managers/auth/google/callback",
      "cookieSigningKey": {"$env": "TEST_COOKIE_SIGNING_KEY"}
    }
  }
}`

func setAuthEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TEST_GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("TEST_GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("TEST_COOKIE_SIGNING_KEY", "signing-key")
}

func TestLoadValidConfig(t *testing.T) {
	setAuthEnv(t)
	path := writeConfigFile(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "v1", cfg.Version)
	assert.Equal(t, ":8080", cfg.Gateway.Addr)
	assert.Equal(t, "https://portal.homeshine.io", cfg.Gateway.PortalBaseURL)
	assert.Equal(t, Secret("client-id"), cfg.Gateway.Auth.GoogleClientID)
	assert.Equal(t, Secret("signing-key"), cfg.Gateway.Auth.CookieSigningKey)

	// Storage defaults to memory
	assert.Equal(t, StorageKind(""), cfg.Gateway.Storage)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := writeConfigFile(t, `{"version": "v2", "gateway": {}}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestLoadRejectsMissingVersion(t *testing.T) {
	path := writeConfigFile(t, `{"gateway": {}}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version is required")
}

func TestLoadRejectsLiteralSecret(t *testing.T) {
	setAuthEnv(t)
	path := writeConfigFile(t, `{
  "version": "v1",
  "gateway": {
    "addr": ":8080",
    "backendBaseUrl": "https://api.homeshine.io",
    "auth": {
      "googleClientId": "literal-secret",
      "googleClientSecret": {"$env": "TEST_GOOGLE_CLIENT_SECRET"},
      "customerRedirectUri": "https://x/cb",
      "managerRedirectUri": "https://x/cb",
      "cookieSigningKey": {"$env": "TEST_COOKIE_SIGNING_KEY"}
    }
  }
}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$env")
}

func TestLoadRejectsUnsetEnvVar(t *testing.T) {
	setAuthEnv(t)
	os.Unsetenv("TEST_GOOGLE_CLIENT_ID")
	path := writeConfigFile(t, validConfig)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_GOOGLE_CLIENT_ID")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Version: "v1",
			Gateway: GatewayConfig{
				Addr:           ":8080",
				BackendBaseURL: "https://api.homeshine.io",
				Auth: AuthConfig{
					GoogleClientID:      "id",
					GoogleClientSecret:  "secret",
					CustomerRedirectURI: "https://x/customers/cb",
					ManagerRedirectURI:  "https://x/managers/cb",
					CookieSigningKey:    "key",
				},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing addr",
			mutate:  func(c *Config) { c.Gateway.Addr = "" },
			wantErr: "addr",
		},
		{
			name:    "relative backend URL",
			mutate:  func(c *Config) { c.Gateway.BackendBaseURL = "api.homeshine.io" },
			wantErr: "backendBaseUrl",
		},
		{
			name:    "relative portal URL",
			mutate:  func(c *Config) { c.Gateway.PortalBaseURL = "portal.homeshine.io" },
			wantErr: "portalBaseUrl",
		},
		{
			name:    "firestore needs project",
			mutate:  func(c *Config) { c.Gateway.Storage = StorageKindFirestore },
			wantErr: "gcpProject",
		},
		{
			name: "firestore needs encryption key",
			mutate: func(c *Config) {
				c.Gateway.Storage = StorageKindFirestore
				c.Gateway.GCPProject = "proj"
				c.Gateway.FirestoreCollection = "portal_front"
			},
			wantErr: "encryptionKey",
		},
		{
			name:    "unknown storage kind",
			mutate:  func(c *Config) { c.Gateway.Storage = "redis" },
			wantErr: "unknown storage kind",
		},
		{
			name:    "missing google client id",
			mutate:  func(c *Config) { c.Gateway.Auth.GoogleClientID = "" },
			wantErr: "googleClientId",
		},
		{
			name:    "missing redirect URIs",
			mutate:  func(c *Config) { c.Gateway.Auth.ManagerRedirectURI = "" },
			wantErr: "RedirectUri",
		},
		{
			name:    "missing cookie signing key",
			mutate:  func(c *Config) { c.Gateway.Auth.CookieSigningKey = "" },
			wantErr: "cookieSigningKey",
		},
		{
			name:    "admin token not bcrypt",
			mutate:  func(c *Config) { c.Gateway.Auth.AdminTokens = []string{"plaintext"} },
			wantErr: "bcrypt",
		},
		{
			name: "admin token bcrypt accepted",
			mutate: func(c *Config) {
				c.Gateway.Auth.AdminTokens = []string{"$2a$10$abcdefghijklmnopqrstuv"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	secret := Secret("super-secret")
	assert.Equal(t, "***", secret.String())
	assert.Equal(t, "", Secret("").String())

	data, err := json.Marshal(map[string]Secret{"key": secret, "empty": ""})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")
	assert.Contains(t, string(data), "***")
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"12h"`), &d))
	assert.Equal(t, Duration(12*time.Hour), d)

	out, err := json.Marshal(Duration(90 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, `"1h30m0s"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}
