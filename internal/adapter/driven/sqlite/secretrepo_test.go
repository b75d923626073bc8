package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestSecretRepo_PutAndGet(t *testing.T) {
	db := setupSecretDB(t)
	repo := NewSecretRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "k-1", []byte(`{"username":"u","password":"p"}`)))

	val, err := repo.Get(ctx, "k-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"u","password":"p"}`, string(val))
}

func TestSecretRepo_PutOverwrites(t *testing.T) {
	db := setupSecretDB(t)
	repo := NewSecretRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "k", []byte("old")))
	require.NoError(t, repo.Put(ctx, "k", []byte("new")))

	val, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(val))
}

func TestSecretRepo_GetMissing(t *testing.T) {
	db := setupSecretDB(t)
	repo := NewSecretRepo(db, testKey())

	_, err := repo.Get(context.Background(), "nope")
	require.ErrorIs(t, err, driven.ErrSecretNotFound)
}

func TestSecretRepo_ValueEncryptedAtRest(t *testing.T) {
	db := setupSecretDB(t)
	repo := NewSecretRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "k", []byte("hunter2")))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, "k").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "hunter2")
}

func TestSecretRepo_CiphertextBoundToKey(t *testing.T) {
	db := setupSecretDB(t)
	repo := NewSecretRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "a", []byte("alpha")))
	require.NoError(t, repo.Put(ctx, "b", []byte("beta")))

	// Copy a's ciphertext under b; decryption must fail the authentication check.
	_, err := db.Writer.ExecContext(ctx,
		`UPDATE secrets SET value = (SELECT value FROM secrets WHERE key = 'a') WHERE key = 'b'`)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcm.Open")
}

func TestSecretRepo_NoKey(t *testing.T) {
	db := setupSecretDB(t)
	repo := NewSecretRepo(db, nil)
	ctx := context.Background()

	err := repo.Put(ctx, "k", []byte("v"))
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "k")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestSecretRepo_DeleteAndKeys(t *testing.T) {
	db := setupSecretDB(t)
	repo := NewSecretRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "b", []byte("2")))
	require.NoError(t, repo.Put(ctx, "a", []byte("1")))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, repo.Delete(ctx, "a"))

	err = repo.Delete(ctx, "a")
	require.ErrorIs(t, err, driven.ErrSecretNotFound)

	keys, err = repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}
