package storage

import (
	"context"
	"testing"

	"github.com/homeshine/portal-front/internal/debuglog"
	"github.com/homeshine/portal-front/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageSessionRoundTrip(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	rec, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	saved := session.Record{
		AccessToken:   "tok-1",
		Role:          "CUSTOMER",
		Email:         "kim@example.com",
		UserName:      "Kim",
		AccountStatus: "ACTIVE",
	}
	require.NoError(t, store.SaveSession(ctx, saved))

	rec, err = store.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, saved, *rec)

	// Returned record is a copy, not an alias of internal state
	rec.AccessToken = "mutated"
	again, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", again.AccessToken)
}

func TestMemoryStorageDeleteSession(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, session.Record{AccessToken: "tok-1", Role: "MANAGER"}))
	require.NoError(t, store.DeleteSession(ctx))

	rec, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Deleting an absent session is not an error
	require.NoError(t, store.DeleteSession(ctx))
}

func TestMemoryStorageDebugEntries(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.AppendEntry(ctx, debuglog.Entry{Time: "t1", Message: "first"}))
	require.NoError(t, store.AppendEntry(ctx, debuglog.Entry{Time: "t2", Message: "second", Payload: "detail"}))

	entries, err = store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)

	require.NoError(t, store.ClearEntries(ctx))
	entries, err = store.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryStorageDebugTrailIndependentOfSession(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, session.Record{AccessToken: "tok-1", Role: "CUSTOMER"}))
	require.NoError(t, store.AppendEntry(ctx, debuglog.Entry{Time: "t1", Message: "trail"}))

	require.NoError(t, store.DeleteSession(ctx))
	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.ClearEntries(ctx))
	rec, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
}
