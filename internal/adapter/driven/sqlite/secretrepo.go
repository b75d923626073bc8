package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretStore = (*SecretRepo)(nil)

// SecretRepo is the SQLite implementation of the SecretStore port interface.
// It lives in its own database file, separate from the metadata store.
// Values are encrypted with AES-256-GCM before write and decrypted after read;
// the entry key is bound as additional authenticated data so a ciphertext
// cannot be replayed under another key.
type SecretRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewSecretRepo creates a new SecretRepo. key must be 32 bytes for AES-256-GCM,
// or nil, in which case Put and Get return driven.ErrEncryptionKeyNotSet.
func NewSecretRepo(db *DB, key []byte) *SecretRepo {
	return &SecretRepo{db: db, key: key}
}

// Put stores or replaces the blob under key.
func (r *SecretRepo) Put(ctx context.Context, key string, value []byte) error {
	encrypted, err := r.encrypt(key, value)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO secrets (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, key, encrypted); err != nil {
		return fmt.Errorf("put secret %q: %w", key, err)
	}
	return nil
}

// Get returns the decrypted blob under key, or driven.ErrSecretNotFound.
func (r *SecretRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM secrets WHERE key = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get secret %q: %w", key, driven.ErrSecretNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get secret %q: %w", key, err)
	}

	plaintext, err := r.decrypt(key, encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt secret %q: %w", key, err)
	}
	return plaintext, nil
}

// Delete removes the blob under key. Returns driven.ErrSecretNotFound when
// nothing was stored.
func (r *SecretRepo) Delete(ctx context.Context, key string) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete secret %q: %w", key, err)
	}
	return expectOneRow(res, fmt.Sprintf("delete secret %q", key), driven.ErrSecretNotFound)
}

// Keys lists every stored key in ascending order.
func (r *SecretRepo) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `SELECT key FROM secrets ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list secret keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan secret key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate secret keys: %w", err)
	}
	return keys, nil
}

func (r *SecretRepo) aead() (cipher.AEAD, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

// encrypt returns base64(nonce || ciphertext || tag).
func (r *SecretRepo) encrypt(key string, plaintext []byte) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, []byte(key))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (r *SecretRepo) decrypt(key, encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("gcm.Open: %w", err)
	}
	return plaintext, nil
}
