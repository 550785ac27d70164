package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "campushire-cli"
)

// KeyringStore keeps credentials in the OS keychain/credential manager
type KeyringStore struct {
	namespace string
}

// NewKeyringStore creates a keyring-backed store for the given server
func NewKeyringStore(serverURL string) *KeyringStore {
	return &KeyringStore{namespace: serverURL}
}

// keyringKey returns a unique keyring account per server
func (s *KeyringStore) keyringKey(key string) string {
	return fmt.Sprintf("%s@%s", key, s.namespace)
}

// Get retrieves a value from the OS keychain
func (s *KeyringStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := withContext(ctx, func() (err error) {
		value, err = keyring.Get(service, s.keyringKey(key))
		return err
	})
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value in the OS keychain
func (s *KeyringStore) Set(ctx context.Context, key, value string) error {
	err := withContext(ctx, func() error {
		return keyring.Set(service, s.keyringKey(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes a value from the OS keychain
func (s *KeyringStore) Delete(ctx context.Context, key string) error {
	err := withContext(ctx, func() error {
		return keyring.Delete(service, s.keyringKey(key))
	})
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// withContext runs fn, giving up when ctx is done first. fn keeps running in
// the background in that case.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
