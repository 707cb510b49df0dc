package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeco/tradeco_sdk_go/pkg/session"
)

type summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func TestStoreSaveAndReadSession(t *testing.T) {
	store := session.New(session.NewMemoryStorage())

	assert.False(t, store.IsAuthenticated())
	require.ErrorIs(t, store.RequireAuth(), session.ErrNotAuthenticated)

	require.NoError(t, store.SaveSession("t1", summary{ID: "1", Username: "a"}))

	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "t1", token)
	assert.True(t, store.IsAuthenticated())
	assert.NoError(t, store.RequireAuth())

	var got summary
	require.True(t, store.User(&got))
	assert.Equal(t, summary{ID: "1", Username: "a"}, got)

	raw, ok := store.RawUser()
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"1","username":"a"}`, string(raw))
}

func TestStoreUserMissingOrCorrupt(t *testing.T) {
	storage := session.NewMemoryStorage()
	store := session.New(storage)

	var got summary
	assert.False(t, store.User(&got))

	require.NoError(t, storage.Set(session.KeyUser, "{not json"))
	assert.False(t, store.User(&got))

	require.NoError(t, storage.Set(session.KeyUser, "null"))
	assert.False(t, store.User(&got))
}

func TestStoreEmptyTokenIsNotAuthenticated(t *testing.T) {
	store := session.New(nil)
	require.NoError(t, store.SaveToken(""))
	assert.False(t, store.IsAuthenticated())
}

func TestLogoutClearsBothKeysAndNavigates(t *testing.T) {
	var views []string
	store := session.New(session.NewMemoryStorage(), session.WithNavigator(session.NavigatorFunc(func(view string) {
		views = append(views, view)
	})))
	require.NoError(t, store.SaveSession("t1", summary{ID: "1"}))

	require.NoError(t, store.Logout())

	assert.False(t, store.IsAuthenticated())
	_, ok := store.RawUser()
	assert.False(t, ok)
	assert.Equal(t, []string{session.HomeView}, views)
}

type failingStorage struct {
	*session.MemoryStorage
	failRemove bool
	failGet    bool
}

func (f *failingStorage) Get(key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("disk on fire")
	}
	return f.MemoryStorage.Get(key)
}

func (f *failingStorage) Remove(key string) error {
	if f.failRemove {
		return errors.New("read-only")
	}
	return f.MemoryStorage.Remove(key)
}

func TestLogoutNavigatesEvenOnStorageFailure(t *testing.T) {
	storage := &failingStorage{MemoryStorage: session.NewMemoryStorage(), failRemove: true}
	navigated := false
	store := session.New(storage, session.WithNavigator(session.NavigatorFunc(func(string) { navigated = true })))

	err := store.Logout()
	require.Error(t, err)
	assert.True(t, navigated)
}

func TestReadFailuresDegradeToAnonymous(t *testing.T) {
	storage := &failingStorage{MemoryStorage: session.NewMemoryStorage()}
	store := session.New(storage)
	require.NoError(t, store.SaveSession("t1", summary{ID: "1"}))

	storage.failGet = true
	assert.False(t, store.IsAuthenticated())
	var got summary
	assert.False(t, store.User(&got))
}

func TestConcurrentWritesLastWriteWins(t *testing.T) {
	store := session.New(session.NewMemoryStorage())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.SaveToken("tok")
			_ = store.IsAuthenticated()
		}()
	}
	wg.Wait()

	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestFileStoragePersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	fs, err := session.NewFileStorage(path)
	require.NoError(t, err)
	first := session.New(fs)
	require.NoError(t, first.SaveSession("t1", summary{ID: "1", Username: "a"}))

	reopened, err := session.NewFileStorage(path)
	require.NoError(t, err)
	second := session.New(reopened)

	token, ok := second.Token()
	require.True(t, ok)
	assert.Equal(t, "t1", token)
	var got summary
	require.True(t, second.User(&got))
	assert.Equal(t, "a", got.Username)

	require.NoError(t, second.Logout())
	assert.False(t, first.IsAuthenticated())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorageErrors(t *testing.T) {
	_, err := session.NewFileStorage(" ")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("[broken"), 0o600))
	fs, err := session.NewFileStorage(path)
	require.NoError(t, err)

	_, _, err = fs.Get(session.KeyToken)
	require.Error(t, err)
	require.Error(t, fs.Set(session.KeyToken, "t1"))
	assert.Equal(t, path, fs.Path())
}
