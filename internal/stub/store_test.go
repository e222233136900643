package stub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateUser_Duplicates(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.CreateUser(&User{ID: "1", Username: "alice", Email: "alice@example.com", OrganizationID: "org-1"}))

	tests := []struct {
		name string
		user User
		want error
	}{
		{"same username", User{ID: "2", Username: "Alice", Email: "other@example.com", OrganizationID: "org-1"}, ErrDuplicateUsername},
		{"same email", User{ID: "3", Username: "bob", Email: "ALICE@example.com", OrganizationID: "org-1"}, ErrDuplicateEmail},
		{"other organization", User{ID: "4", Username: "alice", Email: "alice@example.com", OrganizationID: "org-2"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			assert.ErrorIs(t, store.CreateUser(&user), tt.want)
		})
	}
	assert.Equal(t, 2, store.UserCount())
}

func TestStore_FindByLogin(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.CreateUser(&User{ID: "1", Username: "alice", Email: "alice@example.com", OrganizationID: "org-1"}))

	byUsername, ok := store.FindByLogin("org-1", "ALICE")
	require.True(t, ok)
	assert.Equal(t, "1", byUsername.ID)

	byEmail, ok := store.FindByLogin("org-1", "alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "1", byEmail.ID)

	_, ok = store.FindByLogin("org-2", "alice")
	assert.False(t, ok)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.CreateUser(&User{ID: "1", Username: "alice", OrganizationID: "org-1"}))

	user, ok := store.FindByID("1")
	require.True(t, ok)
	user.Username = "mallory"

	again, _ := store.FindByID("1")
	assert.Equal(t, "alice", again.Username)
}

func TestStore_ConsumeRefreshToken(t *testing.T) {
	store := NewStore()
	now := time.Now()
	store.SaveRefreshToken("live", "u1", now.Add(time.Hour))
	store.SaveRefreshToken("stale", "u1", now.Add(-time.Second))

	userID, err := store.ConsumeRefreshToken("live", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = store.ConsumeRefreshToken("live", now)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = store.ConsumeRefreshToken("stale", now)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = store.ConsumeRefreshToken("unknown", now)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestStore_ConsumeRefreshToken_Once(t *testing.T) {
	store := NewStore()
	store.SaveRefreshToken("tok", "u1", time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ConsumeRefreshToken("tok", time.Now()); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestStore_RevokeUserTokens(t *testing.T) {
	store := NewStore()
	expires := time.Now().Add(time.Hour)
	store.SaveRefreshToken("a", "u1", expires)
	store.SaveRefreshToken("b", "u1", expires)
	store.SaveRefreshToken("c", "u2", expires)

	assert.Equal(t, 2, store.RevokeUserTokens("u1"))
	assert.Equal(t, 0, store.RevokeUserTokens("u1"))
	assert.Equal(t, 0, store.RevokeUserTokens("nobody"))

	_, err := store.ConsumeRefreshToken("c", time.Now())
	assert.NoError(t, err)
}
