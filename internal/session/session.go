package session

import (
	"context"
	"sync"

	"github.com/homeshine/portal-front/internal/log"
)

// Role identifies which portal initiated a login: the customer-facing one or
// the manager (service provider) facing one. It disambiguates the backend
// endpoint and the post-login destination.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleManager  Role = "MANAGER"
)

// PathSegment returns the plural path segment used in backend endpoints and
// portal routes ("customers" or "managers").
func (r Role) PathSegment() string {
	if r == RoleManager {
		return "managers"
	}
	return "customers"
}

// RoleFromPath derives the role from a request path. Paths under /managers
// belong to the manager portal, everything else to the customer portal.
func RoleFromPath(path string) Role {
	if len(path) >= len("/managers") && path[:len("/managers")] == "/managers" {
		return RoleManager
	}
	return RoleCustomer
}

// State is the authenticated identity shared process-wide after a successful
// login. AccessToken and Role are always set together or absent together.
type State struct {
	AccessToken string `json:"accessToken"`
	Role        Role   `json:"role"`
}

// Authenticated reports whether a session is established.
func (s State) Authenticated() bool {
	return s.AccessToken != ""
}

// Profile carries the user fields echoed by the backend during login. It is
// mutated only together with State, by the same login transaction.
type Profile struct {
	Email         string `json:"email"`
	UserName      string `json:"userName"`
	AccountStatus string `json:"accountStatus"`
	Provider      string `json:"provider"`
	ProviderID    string `json:"providerId"`
}

// Record is the persisted shape of the session and profile.
type Record struct {
	AccessToken   string `json:"accessToken"`
	Role          string `json:"role"`
	Email         string `json:"email"`
	UserName      string `json:"userName"`
	AccountStatus string `json:"accountStatus"`
	Provider      string `json:"provider"`
	ProviderID    string `json:"providerId"`
}

// Persistence stores the session record across restarts. Implemented by the
// storage package (memory and Firestore backends).
type Persistence interface {
	SaveSession(ctx context.Context, rec Record) error
	LoadSession(ctx context.Context) (*Record, error)
	DeleteSession(ctx context.Context) error
}

// Store is the single source of truth for "is there an authenticated user,
// and as which role". Reads are served from an in-memory copy and never
// block; writes go through the persistence backend first, so a caller that
// observes a completed SetSession knows the state is durably committed.
//
// Only the login flow and explicit logout mutate the store. All other
// callers treat the returned values as immutable snapshots.
type Store struct {
	mu      sync.RWMutex
	state   State
	profile Profile

	persistence Persistence
}

// NewStore creates an empty session store backed by the given persistence.
func NewStore(persistence Persistence) *Store {
	return &Store{persistence: persistence}
}

// Restore loads any persisted session into memory. Called once at startup;
// a missing record leaves the store unauthenticated.
func (s *Store) Restore(ctx context.Context) error {
	rec, err := s.persistence.LoadSession(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{AccessToken: rec.AccessToken, Role: Role(rec.Role)}
	s.profile = Profile{
		Email:         rec.Email,
		UserName:      rec.UserName,
		AccountStatus: rec.AccountStatus,
		Provider:      rec.Provider,
		ProviderID:    rec.ProviderID,
	}

	log.LogInfoWithFields("session", "Restored persisted session", map[string]any{
		"authenticated": s.state.Authenticated(),
		"role":          string(s.state.Role),
	})
	return nil
}

// SetSession unconditionally overwrites the session and profile together.
// The in-memory copy is updated only after the persistence write succeeds,
// so no caller can ever observe a token without a role or vice versa.
// Input is trusted; the token is not validated here.
func (s *Store) SetSession(ctx context.Context, accessToken string, role Role, profile Profile) error {
	rec := Record{
		AccessToken:   accessToken,
		Role:          string(role),
		Email:         profile.Email,
		UserName:      profile.UserName,
		AccountStatus: profile.AccountStatus,
		Provider:      profile.Provider,
		ProviderID:    profile.ProviderID,
	}
	if err := s.persistence.SaveSession(ctx, rec); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = State{AccessToken: accessToken, Role: role}
	s.profile = profile
	s.mu.Unlock()
	return nil
}

// ClearSession resets session and profile to absent. Used by logout.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.persistence.DeleteSession(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = State{}
	s.profile = Profile{}
	s.mu.Unlock()
	return nil
}

// GetSession returns the current session state. Never blocks, never fails.
func (s *Store) GetSession() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// GetProfile returns the current user profile snapshot.
func (s *Store) GetProfile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}
