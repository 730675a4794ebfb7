package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(exp)}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

// backends returns one fresh instance of every store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "token.yaml"))
	require.NoError(t, err)
	db, err := NewSQLiteStore(filepath.Join(dir, "token.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
		"sqlite": db,
	}
}

func TestStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			exp := time.Now().Add(time.Hour).Truncate(time.Second)
			require.NoError(t, store.Set(ctx, NewToken(signedToken(t, exp))))

			tok, err := store.Get(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, tok.Value)
			assert.True(t, tok.ExpiresAt.Equal(exp), "expiry %v != %v", tok.ExpiresAt, exp)
			assert.False(t, tok.IsExpired())
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx)
			assert.ErrorIs(t, err, ErrTokenNotFound)
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, NewToken("first")))
			require.NoError(t, store.Set(ctx, NewToken("second")))
			tok, err := store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "second", tok.Value)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, NewToken("val")))
			require.NoError(t, store.Delete(ctx))
			_, err := store.Get(ctx)
			assert.ErrorIs(t, err, ErrTokenNotFound)

			// deleting twice is not an error
			assert.NoError(t, store.Delete(ctx))
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "token.yaml")

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, NewToken("persisted")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := NewFileStore(path)
	require.NoError(t, err)
	tok, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok.Value)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.db")

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, NewToken("persisted")))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()
	tok, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok.Value)
	assert.True(t, tok.ExpiresAt.IsZero())
}

func TestExpiryOf(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	assert.True(t, ExpiryOf(signedToken(t, exp)).Equal(exp))
	assert.True(t, ExpiryOf("opaque-token").IsZero())
	assert.True(t, NewToken(signedToken(t, exp)).IsExpired())
}

func TestToken_IsExpired(t *testing.T) {
	assert.True(t, (&Token{ExpiresAt: time.Now().Add(-time.Second)}).IsExpired())
	assert.False(t, (&Token{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
	assert.False(t, (&Token{}).IsExpired())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(BackendFile, filepath.Join(dir, "t.yaml"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(BackendSQLite, filepath.Join(dir, "t.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("redis", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
