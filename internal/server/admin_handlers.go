package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/homeshine/portal-front/internal/cookie"
	"github.com/homeshine/portal-front/internal/crypto"
	"github.com/homeshine/portal-front/internal/debuglog"
	jsonwriter "github.com/homeshine/portal-front/internal/json"
	"github.com/homeshine/portal-front/internal/log"
)

// DefaultAdminCookieTTL bounds admin logins when no TTL is configured
const DefaultAdminCookieTTL = 12 * time.Hour

// AdminLoginClient is the backend collaborator for administrator logins.
type AdminLoginClient interface {
	AdminLogin(ctx context.Context, phone, password string) (string, error)
}

// AdminHandlers serves the administrator surface: credential login proxied
// to the backend, and the persisted debug trail for troubleshooting failed
// logins.
type AdminHandlers struct {
	backend    AdminLoginClient
	debugStore debuglog.Persistence
	signer     crypto.TokenSigner
	cookieTTL  time.Duration
}

// NewAdminHandlers creates the admin handlers
func NewAdminHandlers(backend AdminLoginClient, debugStore debuglog.Persistence, signer crypto.TokenSigner, cookieTTL time.Duration) *AdminHandlers {
	if cookieTTL <= 0 {
		cookieTTL = DefaultAdminCookieTTL
	}
	return &AdminHandlers{
		backend:    backend,
		debugStore: debugStore,
		signer:     signer,
		cookieTTL:  cookieTTL,
	}
}

// adminLoginRequest is the login request body
type adminLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginHandler forwards admin credentials to the backend and, on success,
// issues the signed admin cookie holding the backend's bearer token.
func (h *AdminHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteMethodNotAllowed(w, "Use POST")
		return
	}

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Phone == "" || req.Password == "" {
		jsonwriter.WriteBadRequest(w, "phone and password are required")
		return
	}

	token, err := h.backend.AdminLogin(r.Context(), req.Phone, req.Password)
	if err != nil {
		log.LogWarnWithFields("admin", "Admin login rejected", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteUnauthorized(w, "Invalid credentials")
		return
	}

	signed, err := h.signer.Sign(adminCookieClaims{Token: token})
	if err != nil {
		log.LogError("Failed to sign admin cookie: %v", err)
		jsonwriter.WriteInternalServerError(w, "Failed to establish admin session")
		return
	}
	cookie.SetAdmin(w, signed, h.cookieTTL)

	log.LogInfoWithFields("admin", "Admin login succeeded", nil)
	_ = jsonwriter.Write(w, map[string]bool{"success": true})
}

// DebugLogsHandler lists or clears the persisted debug trail.
func (h *AdminHandlers) DebugLogsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := h.debugStore.ListEntries(r.Context())
		if err != nil {
			log.LogError("Failed to list debug entries: %v", err)
			jsonwriter.WriteInternalServerError(w, "Failed to read debug logs")
			return
		}
		if entries == nil {
			entries = []debuglog.Entry{}
		}
		_ = jsonwriter.Write(w, entries)

	case http.MethodDelete:
		if err := h.debugStore.ClearEntries(r.Context()); err != nil {
			log.LogError("Failed to clear debug entries: %v", err)
			jsonwriter.WriteInternalServerError(w, "Failed to clear debug logs")
			return
		}
		_ = jsonwriter.Write(w, map[string]bool{"success": true})

	default:
		jsonwriter.WriteMethodNotAllowed(w, "Use GET or DELETE")
	}
}
