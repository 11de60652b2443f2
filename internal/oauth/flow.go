// Package oauth implements the federated-login completion flow: it turns an
// identity-provider redirect into either an established session or a failure
// navigation, exactly once per invocation.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/homeshine/portal-front/internal/backend"
	"github.com/homeshine/portal-front/internal/debuglog"
	"github.com/homeshine/portal-front/internal/log"
	"github.com/homeshine/portal-front/internal/session"
	"github.com/homeshine/portal-front/internal/urlutil"
	"golang.org/x/sync/singleflight"
)

// State is the terminal-state machine of one callback invocation. Every
// invocation starts at StatePending; a fresh redirect always restarts the
// machine, it is never resumed.
type State string

const (
	StatePending   State = "PENDING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
)

var (
	// ErrProviderDenied means the identity provider returned an error query
	// parameter. Not retryable within the invocation.
	ErrProviderDenied = errors.New("identity provider denied the login")

	// ErrMissingCode means the redirect carried neither a code nor an error
	// (malformed or truncated). Treated identically to a provider denial.
	ErrMissingCode = errors.New("authorization code missing from redirect")

	// ErrExchangeFailed means the backend token exchange failed (network,
	// non-2xx, unparsable body). The code is single-use, so the exchange is
	// never retried; the user must re-initiate login.
	ErrExchangeFailed = errors.New("token exchange failed")
)

// Callback is the ephemeral context of one identity-provider redirect.
// At most one of Code and ProviderError is expected; both absent is a
// failure in its own right.
type Callback struct {
	Role          session.Role
	Code          string
	ProviderError string
}

// ParseCallback derives the callback context from the redirect request.
// Paths under /managers belong to the manager portal, everything else to
// the customer portal.
func ParseCallback(requestPath string, query url.Values) Callback {
	return Callback{
		Role:          session.RoleFromPath(requestPath),
		Code:          query.Get("code"),
		ProviderError: query.Get("error"),
	}
}

// Exchanger is the backend token-exchange collaborator.
type Exchanger interface {
	ExchangeGoogleCode(ctx context.Context, role session.Role, code string) (*backend.ExchangeResult, error)
}

// Outcome is the result of a completed invocation: the terminal state, the
// single navigation to issue, and the classified error on the failure path.
type Outcome struct {
	State       State
	RedirectURL string
	Err         error
}

// Flow coordinates the callback state machine. The session store and debug
// sink are injected; the flow holds no mutable state of its own besides the
// in-flight de-duplication group.
type Flow struct {
	portalBaseURL string
	exchanger     Exchanger
	sessions      *session.Store
	debug         *debuglog.Sink

	// Deduplicates concurrent invocations reusing the same single-use code
	// (e.g. a double-delivered redirect): both share one exchange and one
	// outcome. A code replayed after completion still fails at the backend.
	group singleflight.Group
}

// NewFlow creates the completion flow. portalBaseURL prefixes the success
// and failure navigations; empty means portal-relative redirects.
func NewFlow(portalBaseURL string, exchanger Exchanger, sessions *session.Store, debug *debuglog.Sink) *Flow {
	return &Flow{
		portalBaseURL: portalBaseURL,
		exchanger:     exchanger,
		sessions:      sessions,
		debug:         debug,
	}
}

// Complete runs one invocation of the state machine to its terminal state.
// Exactly one navigation target is returned; the session is mutated at most
// once, and only on the success path for existing accounts. Debug logging is
// best-effort and never alters the outcome.
func (f *Flow) Complete(ctx context.Context, cb Callback) Outcome {
	f.debug.Append("oauth callback received", map[string]any{
		"role":  string(cb.Role),
		"code":  cb.Code,
		"error": cb.ProviderError,
	})

	if cb.ProviderError != "" {
		f.debug.Append("provider returned error", cb.ProviderError)
		return f.fail(cb.Role, fmt.Errorf("%w: %s", ErrProviderDenied, cb.ProviderError))
	}

	if cb.Code == "" {
		f.debug.Append("authorization code missing", nil)
		return f.fail(cb.Role, ErrMissingCode)
	}

	v, err, shared := f.group.Do(cb.Code, func() (any, error) {
		return f.exchange(ctx, cb), nil
	})
	if shared {
		log.LogWarnWithFields("oauth", "Duplicate callback invocation coalesced", map[string]any{
			"role": string(cb.Role),
		})
	}
	if err != nil {
		// Do only returns our own outcome; err is unreachable in practice
		return f.fail(cb.Role, fmt.Errorf("%w: %v", ErrExchangeFailed, err))
	}
	return v.(Outcome)
}

// exchange runs the token-exchange step and, for existing accounts, the
// atomic session write. Runs at most once per in-flight authorization code.
func (f *Flow) exchange(ctx context.Context, cb Callback) Outcome {
	f.debug.Append("invoking token exchange", map[string]any{
		"role": string(cb.Role),
		"code": cb.Code,
	})

	result, err := f.exchanger.ExchangeGoogleCode(ctx, cb.Role, cb.Code)
	if err != nil {
		f.debug.Append("token exchange failed", err.Error())
		return f.fail(cb.Role, fmt.Errorf("%w: %v", ErrExchangeFailed, err))
	}

	if !result.IsNewAccount {
		profile := session.Profile{
			Email:         result.Email,
			UserName:      result.UserName,
			AccountStatus: result.AccountStatus,
			Provider:      result.Provider,
			ProviderID:    result.ProviderID,
		}

		f.debug.Append("session write pending", map[string]any{
			"role":     string(cb.Role),
			"userName": result.UserName,
			"email":    result.Email,
		})

		// Navigation is issued only after this write is durably committed;
		// a failed write must not leave a half-established session behind.
		if err := f.sessions.SetSession(ctx, result.AccessToken, cb.Role, profile); err != nil {
			f.debug.Append("session write failed", err.Error())
			return f.fail(cb.Role, fmt.Errorf("%w: storing session: %v", ErrExchangeFailed, err))
		}

		f.debug.Append("session write committed", map[string]any{
			"authenticated": f.sessions.GetSession().Authenticated(),
			"role":          string(f.sessions.GetSession().Role),
		})
	}

	redirect := f.successURL(cb.Role, result)
	f.debug.Append("navigating to success", map[string]any{
		"role":  string(cb.Role),
		"isNew": result.IsNewAccount,
	})
	return Outcome{State: StateSucceeded, RedirectURL: redirect}
}

func (f *Flow) fail(role session.Role, err error) Outcome {
	log.LogWarnWithFields("oauth", "Login flow failed", map[string]any{
		"role":  string(role),
		"error": err.Error(),
	})
	return Outcome{
		State:       StateFailed,
		RedirectURL: f.failureURL(role),
		Err:         err,
	}
}

// successURL carries everything the onboarding/home screen needs. Absent
// values are encoded as empty strings so the page sees every expected key;
// parameter order matches the portal's route contract.
func (f *Flow) successURL(role session.Role, result *backend.ExchangeResult) string {
	query := urlutil.EncodeQuery([]urlutil.QueryParam{
		{Key: "role", Value: role.PathSegment()},
		{Key: "isNew", Value: strconv.FormatBool(result.IsNewAccount)},
		{Key: "name", Value: result.UserName},
		{Key: "email", Value: result.Email},
		{Key: "status", Value: result.AccountStatus},
		{Key: "password", Value: result.TemporaryPassword},
		{Key: "provider", Value: result.Provider},
		{Key: "providerId", Value: result.ProviderID},
	})
	return f.portalBaseURL + "/oauth-success?" + query
}

// failureURL carries only the role; error detail is diagnostic-only and
// stays in the debug trail, never in front of the user.
func (f *Flow) failureURL(role session.Role) string {
	return f.portalBaseURL + "/oauth-fail?role=" + role.PathSegment()
}
