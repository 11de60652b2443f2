package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/homeshine/portal-front/internal/backend"
	"github.com/homeshine/portal-front/internal/debuglog"
	"github.com/homeshine/portal-front/internal/oauth"
	"github.com/homeshine/portal-front/internal/session"
	"github.com/homeshine/portal-front/internal/storage"
	"github.com/homeshine/portal-front/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	handlers  *AuthHandlers
	sessions  *session.Store
	exchanger *testutil.MockExchanger
	sink      *debuglog.Sink
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := storage.NewMemoryStorage()
	sessions := session.NewStore(store)
	sink := debuglog.NewSink(store)
	t.Cleanup(sink.Close)

	exchanger := &testutil.MockExchanger{}
	flow := oauth.NewFlow("", exchanger, sessions, sink)

	customerGoogle := oauth.NewGoogleProvider("client-id", "client-secret", "https://portal.homeshine.io/customers/auth/google/callback")
	managerGoogle := oauth.NewGoogleProvider("client-id", "client-secret", "https://portal.homeshine.io/managers/auth/google/callback")

	return &authFixture{
		handlers:  NewAuthHandlers(flow, sessions, customerGoogle, managerGoogle),
		sessions:  sessions,
		exchanger: exchanger,
		sink:      sink,
	}
}

func TestLoginHandlerRedirectsToGoogle(t *testing.T) {
	fixture := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/customers/auth/google/login", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.LoginHandler(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", location.Host)
	assert.Equal(t, "client-id", location.Query().Get("client_id"))
	assert.Equal(t, "https://portal.homeshine.io/customers/auth/google/callback", location.Query().Get("redirect_uri"))
	assert.NotEmpty(t, location.Query().Get("state"))
	assert.Contains(t, location.Query().Get("scope"), "email")
}

func TestLoginHandlerManagerUsesManagerRedirect(t *testing.T) {
	fixture := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/managers/auth/google/login", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.LoginHandler(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "https://portal.homeshine.io/managers/auth/google/callback", location.Query().Get("redirect_uri"))
}

func TestCallbackHandlerExistingAccount(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.exchanger.On("ExchangeGoogleCode", mock.Anything, session.RoleCustomer, "abc123").
		Return(&backend.ExchangeResult{
			AccessToken:   "tok-999",
			UserName:      "Kim",
			Email:         "k@x.com",
			AccountStatus: "ACTIVE",
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/customers/auth/google/callback?code=abc123&state=s1", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.CallbackHandler(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		"/oauth-success?role=customers&isNew=false&name=Kim&email=k%40x.com&status=ACTIVE&password=&provider=&providerId=",
		rec.Header().Get("Location"))

	state := fixture.sessions.GetSession()
	assert.True(t, state.Authenticated())
	assert.Equal(t, "tok-999", state.AccessToken)
	assert.Equal(t, session.RoleCustomer, state.Role)
	fixture.exchanger.AssertExpectations(t)
}

func TestCallbackHandlerProviderError(t *testing.T) {
	fixture := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/managers/auth/google/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.CallbackHandler(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/oauth-fail?role=managers", rec.Header().Get("Location"))
	assert.False(t, fixture.sessions.GetSession().Authenticated())
	fixture.exchanger.AssertNotCalled(t, "ExchangeGoogleCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallbackHandlerMissingCode(t *testing.T) {
	fixture := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/customers/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.CallbackHandler(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/oauth-fail?role=customers", rec.Header().Get("Location"))
}

func TestSessionHandlerUnauthenticated(t *testing.T) {
	fixture := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.SessionHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["authenticated"])
	assert.NotContains(t, resp, "role")
	assert.NotContains(t, resp, "profile")
}

func TestSessionHandlerAuthenticatedHidesToken(t *testing.T) {
	fixture := newAuthFixture(t)
	require.NoError(t, fixture.sessions.SetSession(context.Background(), "tok-999", session.RoleCustomer, session.Profile{
		Email:    "k@x.com",
		UserName: "Kim",
	}))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.SessionHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "tok-999")

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "CUSTOMER", resp["role"])

	profile, ok := resp["profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Kim", profile["userName"])
}

func TestLogoutHandler(t *testing.T) {
	fixture := newAuthFixture(t)
	require.NoError(t, fixture.sessions.SetSession(context.Background(), "tok-1", session.RoleManager, session.Profile{}))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.LogoutHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, fixture.sessions.GetSession().Authenticated())

	// Admin cookie is cleared alongside the session
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portal_admin" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestLogoutHandlerRequiresPost(t *testing.T) {
	fixture := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	fixture.handlers.LogoutHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	NewHealthHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
}
