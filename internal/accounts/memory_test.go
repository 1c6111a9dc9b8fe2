package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(uuid, username string) *Account {
	return &Account{
		UUID:         uuid,
		Username:     username,
		AccessToken:  "session-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		Kind:         KindMSA,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, testAccount("uuid-1", "Steve")))

	got, err := store.Get(ctx, "uuid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Steve", got.Username)
	assert.Equal(t, KindMSA, got.Kind)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, testAccount("uuid-1", "Steve")))

	updated := testAccount("uuid-1", "Steve")
	updated.AccessToken = "newer-session-token"
	require.NoError(t, store.Save(ctx, updated))

	got, err := store.Get(ctx, "uuid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "newer-session-token", got.AccessToken)
}

func TestMemoryStoreListOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, testAccount("uuid-2", "Zuri")))
	require.NoError(t, store.Save(ctx, testAccount("uuid-1", "Alex")))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alex", list[0].Username)
	assert.Equal(t, "Zuri", list[1].Username)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, testAccount("uuid-1", "Steve")))
	require.NoError(t, store.Delete(ctx, "uuid-1"))

	got, err := store.Get(ctx, "uuid-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting a missing account is not an error
	require.NoError(t, store.Delete(ctx, "uuid-1"))
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	account := testAccount("uuid-1", "Steve")
	require.NoError(t, store.Save(ctx, account))

	// Mutating the saved value must not reach stored state
	account.Username = "Herobrine"

	got, err := store.Get(ctx, "uuid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Steve", got.Username)
}

func TestAccountIsExpired(t *testing.T) {
	fresh := testAccount("uuid-1", "Steve")
	assert.False(t, fresh.IsExpired())

	stale := testAccount("uuid-2", "Alex")
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	assert.True(t, stale.IsExpired())

	// Tokens inside the skew window count as expired
	closing := testAccount("uuid-3", "Zuri")
	closing.ExpiresAt = time.Now().Add(time.Minute)
	assert.True(t, closing.IsExpired())
}
