package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestManagerLifecycle(t *testing.T) {
	mem := NewMemoryStore()
	manager := NewManagerWithStores(mem)

	account := &Account{Name: "pages", AccessToken: "EAAB1234567890xyz"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())

	got, err := manager.Retrieve("pages")
	require.NoError(t, err)
	assert.Equal(t, "EAAB1234567890xyz", got.AccessToken)

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("pages"))
	_, err = manager.Retrieve("pages")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, mem.Count())
}

func TestManagerStoreValidation(t *testing.T) {
	manager := NewManagerWithStores(NewMemoryStore())

	assert.Error(t, manager.Store(&Account{AccessToken: "tok"}))
	assert.Error(t, manager.Store(&Account{Name: "pages"}))
}

func TestManagerStoreFallsBack(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreError = errors.New("locked")
	fallback := NewMemoryStore()
	manager := NewManagerWithStores(broken, fallback)

	require.NoError(t, manager.Store(&Account{Name: "pages", AccessToken: "tok"}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, fallback.Count())
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMemoryStore()
	newer := NewMemoryStore()
	now := time.Now()

	require.NoError(t, older.Store(&Account{Name: "a", AccessToken: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Account{Name: "a", AccessToken: "new", LastModified: now}))
	require.NoError(t, newer.Store(&Account{Name: "b", AccessToken: "b", LastModified: now.Add(-2 * time.Hour)}))

	accounts, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a", accounts[0].Name)
	assert.Equal(t, "new", accounts[0].AccessToken)
	assert.Equal(t, "b", accounts[1].Name)
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	mem := NewMemoryStore()
	require.NoError(t, mem.Store(&Account{Name: "stored", AccessToken: "stored-token"}))
	manager := NewManagerWithStores(mem, NewEnvironmentStore())

	t.Setenv(tokenEnv, "")
	got, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "stored", got.Name)

	t.Setenv(tokenEnv, "env-token")
	got, err = manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env", got.Name)
	assert.Equal(t, "env-token", got.AccessToken)
}

func TestRetrieveDefaultNothingStored(t *testing.T) {
	t.Setenv(tokenEnv, "")
	_, err := NewManagerWithStores(NewMemoryStore(), NewEnvironmentStore()).RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStoreIsReadOnly(t *testing.T) {
	store := NewEnvironmentStore()
	assert.ErrorIs(t, store.Store(&Account{Name: "x", AccessToken: "y"}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "pages", AccessToken: "EAAB1234567890xyz", AppID: "42"}
	clean := SanitizeAccount(account)

	assert.Equal(t, "EAAB...0xyz", clean.AccessToken)
	assert.Equal(t, "pages", clean.Name)
	assert.Equal(t, "42", clean.AppID)
	assert.Equal(t, "********", MaskToken("short"))
	assert.Nil(t, SanitizeAccount(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(passphraseEnv, "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "a", AccessToken: "token-a"}))
	require.NoError(t, store.Store(&Account{Name: "b", AccessToken: "token-b"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "token-a")

	got, err := store.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, "token-a", got.AccessToken)
	assert.True(t, store.Exists("b"))

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, store.Delete("a"))
	require.NoError(t, store.Delete("b"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, store.Delete("b"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(passphraseEnv, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "a", AccessToken: "token-a"}))

	t.Setenv(passphraseEnv, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("a")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(passphraseEnv, "")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Name: "a", AccessToken: "token-a"}))

	info, err := os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	got, err := reopened.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, "token-a", got.AccessToken)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Name: "a", AccessToken: "token-a"}))
	require.NoError(t, store.Store(&Account{Name: "b", AccessToken: "token-b"}))
	require.NoError(t, store.Store(&Account{Name: "a", AccessToken: "token-a2"}))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	got, err := store.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, "token-a2", got.AccessToken)

	require.NoError(t, store.Delete("a"))
	assert.False(t, store.Exists("a"))
	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "b", accounts[0].Name)

	assert.ErrorIs(t, store.Delete("a"), ErrCredentialsNotFound)
}

func TestShowTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowTokenGuide(&buf)
	assert.Contains(t, buf.String(), "GRAPHHARVEST_ACCESS_TOKEN")
}
