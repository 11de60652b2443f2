package storage

import (
	"context"
	"sync"

	"github.com/homeshine/portal-front/internal/debuglog"
	"github.com/homeshine/portal-front/internal/session"
)

// Ensure MemoryStorage implements required interfaces
var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps the session record and debug trail in process memory.
// Used in development and tests; state does not survive a restart.
type MemoryStorage struct {
	sessionMutex sync.RWMutex
	session      *session.Record

	entriesMutex sync.RWMutex
	entries      []debuglog.Entry
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// SaveSession overwrites the stored session record.
func (s *MemoryStorage) SaveSession(ctx context.Context, rec session.Record) error {
	s.sessionMutex.Lock()
	defer s.sessionMutex.Unlock()

	recCopy := rec
	s.session = &recCopy
	return nil
}

// LoadSession returns the stored session record, or nil when absent.
func (s *MemoryStorage) LoadSession(ctx context.Context) (*session.Record, error) {
	s.sessionMutex.RLock()
	defer s.sessionMutex.RUnlock()

	if s.session == nil {
		return nil, nil
	}
	recCopy := *s.session
	return &recCopy, nil
}

// DeleteSession removes the stored session record.
func (s *MemoryStorage) DeleteSession(ctx context.Context) error {
	s.sessionMutex.Lock()
	defer s.sessionMutex.Unlock()

	s.session = nil
	return nil
}

// AppendEntry appends one debug entry to the trail.
func (s *MemoryStorage) AppendEntry(ctx context.Context, entry debuglog.Entry) error {
	s.entriesMutex.Lock()
	defer s.entriesMutex.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

// ListEntries returns the debug trail in append order.
func (s *MemoryStorage) ListEntries(ctx context.Context) ([]debuglog.Entry, error) {
	s.entriesMutex.RLock()
	defer s.entriesMutex.RUnlock()

	entries := make([]debuglog.Entry, len(s.entries))
	copy(entries, s.entries)
	return entries, nil
}

// ClearEntries empties the debug trail.
func (s *MemoryStorage) ClearEntries(ctx context.Context) error {
	s.entriesMutex.Lock()
	defer s.entriesMutex.Unlock()

	s.entries = nil
	return nil
}

// Close implements Storage.
func (s *MemoryStorage) Close() error {
	return nil
}
