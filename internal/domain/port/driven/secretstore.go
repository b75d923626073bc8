package driven

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned by SecretStore.Get and SecretStore.Delete when
// no entry exists under the key.
var ErrSecretNotFound = errors.New("secret not found")

// ErrEncryptionKeyNotSet is returned by encrypting SecretStore adapters that
// were constructed without key material.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set VOLT_SECRET_KEY or VOLT_PASSPHRASE")

// SecretStore defines the driven port for the encrypted key to blob store.
// Values are opaque to the adapter; the adapter guarantees confidentiality at
// rest but offers no transactions or versioning.
type SecretStore interface {
	// Put stores or replaces the blob under key.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the blob under key, or ErrSecretNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob under key. Adapters that can tell return
	// ErrSecretNotFound when nothing was stored.
	Delete(ctx context.Context, key string) error

	// Keys lists every key currently held by the store.
	Keys(ctx context.Context) ([]string, error)
}
