package server

import (
	"net/http"

	"github.com/homeshine/portal-front/internal/cookie"
	"github.com/homeshine/portal-front/internal/crypto"
	jsonwriter "github.com/homeshine/portal-front/internal/json"
	"github.com/homeshine/portal-front/internal/log"
	"github.com/homeshine/portal-front/internal/oauth"
	"github.com/homeshine/portal-front/internal/session"
)

// AuthHandlers serves the login surface: initiation, callback completion,
// session introspection and logout. All dependencies are injected.
type AuthHandlers struct {
	flow           *oauth.Flow
	sessions       *session.Store
	customerGoogle *oauth.GoogleProvider
	managerGoogle  *oauth.GoogleProvider
}

// NewAuthHandlers creates the login handlers
func NewAuthHandlers(flow *oauth.Flow, sessions *session.Store, customerGoogle, managerGoogle *oauth.GoogleProvider) *AuthHandlers {
	return &AuthHandlers{
		flow:           flow,
		sessions:       sessions,
		customerGoogle: customerGoogle,
		managerGoogle:  managerGoogle,
	}
}

// LoginHandler redirects the browser to Google's consent page for the role
// derived from the request path.
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	role := session.RoleFromPath(r.URL.Path)

	state, err := crypto.GenerateSecureToken()
	if err != nil {
		log.LogError("Failed to generate state parameter: %v", err)
		jsonwriter.WriteInternalServerError(w, "Failed to start login")
		return
	}

	provider := h.customerGoogle
	if role == session.RoleManager {
		provider = h.managerGoogle
	}

	log.LogInfoWithFields("auth", "Login initiated", map[string]any{
		"role": string(role),
	})
	http.Redirect(w, r, provider.AuthURL(state), http.StatusFound)
}

// CallbackHandler receives the identity-provider redirect and runs the
// completion flow. Exactly one navigation is issued per invocation; while
// the exchange is in flight nothing is written to the response.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	cb := oauth.ParseCallback(r.URL.Path, r.URL.Query())

	outcome := h.flow.Complete(r.Context(), cb)

	http.Redirect(w, r, outcome.RedirectURL, http.StatusFound)
}

// sessionResponse is the introspection shape returned to the portal shell
type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Role          string           `json:"role,omitempty"`
	Profile       *session.Profile `json:"profile,omitempty"`
}

// SessionHandler returns the current session without the access token; the
// token never leaves the gateway through this endpoint.
func (h *AuthHandlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.GetSession()

	resp := sessionResponse{Authenticated: state.Authenticated()}
	if state.Authenticated() {
		resp.Role = string(state.Role)
		profile := h.sessions.GetProfile()
		resp.Profile = &profile
	}

	_ = jsonwriter.Write(w, resp)
}

// LogoutHandler clears the session and the admin cookie.
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteMethodNotAllowed(w, "Use POST")
		return
	}

	if err := h.sessions.ClearSession(r.Context()); err != nil {
		log.LogError("Failed to clear session: %v", err)
		jsonwriter.WriteInternalServerError(w, "Failed to log out")
		return
	}
	cookie.ClearAdmin(w)

	log.LogInfoWithFields("auth", "Session cleared", nil)
	_ = jsonwriter.Write(w, map[string]bool{"success": true})
}

// HealthHandler handles health check requests
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for health checks
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
