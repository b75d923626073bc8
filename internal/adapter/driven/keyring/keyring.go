// Package keyring adapts the operating system credential store to the
// SecretStore port.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/99designs/keyring"

	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretStore = (*Store)(nil)

// Config selects and configures the keyring backend.
type Config struct {
	// ServiceName namespaces every entry, e.g. "volt".
	ServiceName string
	// FileDir is where the encrypted file backend keeps its entries.
	// Only used when the file backend is selected.
	FileDir string
	// Passphrase selects the encrypted file backend and unlocks it. Empty
	// means a platform backend is used instead.
	Passphrase string
}

// Store is a SecretStore backed by github.com/99designs/keyring. The
// platform backend (macOS Keychain, Secret Service, Windows Credential
// Manager, or an encrypted file) is responsible for confidentiality at rest.
type Store struct {
	ring    keyring.Keyring
	service string
}

// Open opens the first available backend for cfg.
func Open(cfg Config) (*Store, error) {
	kcfg := keyring.Config{
		ServiceName:              cfg.ServiceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  cfg.ServiceName,
		KWalletAppID:             cfg.ServiceName,
		KWalletFolder:            cfg.ServiceName,
		WinCredPrefix:            cfg.ServiceName,
	}
	if cfg.Passphrase != "" {
		kcfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		kcfg.FileDir = cfg.FileDir
		kcfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.Passphrase)
	} else {
		kcfg.AllowedBackends = platformBackends()
	}

	ring, err := keyring.Open(kcfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring %q: %w", cfg.ServiceName, err)
	}
	return New(ring, cfg.ServiceName), nil
}

// New wraps an already opened keyring. Tests pass keyring.NewArrayKeyring.
func New(ring keyring.Keyring, service string) *Store {
	return &Store{ring: ring, service: service}
}

// Put stores or replaces the blob under key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	err := s.ring.Set(keyring.Item{
		Key:         key,
		Data:        value,
		Label:       s.service + " credential",
		Description: "volt vault secret",
	})
	if err != nil {
		return fmt.Errorf("put secret %q: %w", key, err)
	}
	return nil
}

// Get returns the blob under key, or driven.ErrSecretNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("get secret %q: %w", key, driven.ErrSecretNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get secret %q: %w", key, err)
	}
	return item.Data, nil
}

// Delete removes the blob under key. Backends that report a missing key
// surface driven.ErrSecretNotFound; others succeed silently.
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("delete secret %q: %w", key, driven.ErrSecretNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete secret %q: %w", key, err)
	}
	return nil
}

// Keys lists every key in the service namespace, sorted.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("list secret keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func platformBackends() []keyring.BackendType {
	return []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.KWalletBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
	}
}
