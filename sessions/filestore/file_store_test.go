package filestore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/sessions/filestore"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/stretchr/testify/require"
)

func testSession() sessions.Session {
	return sessions.Session{
		Token: "token-123",
		User:  &users.User{ID: "u1", Name: "Ayaan", Email: "ayaan@example.com", Role: users.RoleCustomer},
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	fs := filestore.New(filepath.Join(t.TempDir(), "session.json"))

	_, err := fs.Load()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := filestore.New(path)

	require.NoError(t, fs.Save(testSession()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := fs.Load()
	require.NoError(t, err)
	require.Equal(t, testSession(), got)

	require.NoError(t, fs.Clear())
	_, err = fs.Load()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	// clearing twice is fine
	require.NoError(t, fs.Clear())
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, filestore.New(path).Save(testSession()))

	got, err := filestore.New(path).Load()
	require.NoError(t, err)
	require.Equal(t, "token-123", got.Token)
	require.Equal(t, "u1", got.User.ID)
}

func TestFileStore_Sealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	sealed := filestore.New(path, filestore.WithPassphrase("correct horse"))

	require.NoError(t, sealed.Save(testSession()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "token-123"), "token must not be stored in clear text")

	got, err := filestore.New(path, filestore.WithPassphrase("correct horse")).Load()
	require.NoError(t, err)
	require.Equal(t, testSession(), got)

	t.Run("no passphrase", func(t *testing.T) {
		_, err := filestore.New(path).Load()
		require.ErrorIs(t, err, errors.ErrSessionSealed)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := filestore.New(path, filestore.WithPassphrase("battery staple")).Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "wrong passphrase")
		require.NotErrorIs(t, err, errors.ErrSessionCorrupt)
	})
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := filestore.New(path).Load()
	require.ErrorIs(t, err, errors.ErrSessionCorrupt)
	require.NotErrorIs(t, err, errors.ErrSessionNotFound)
}
