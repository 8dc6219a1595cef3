package storage

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/zalando/go-keyring"
)

const service = "creatorhub-cli"

// Keyring stores values in the OS keychain/credential manager. Keys are
// namespaced by API host so sessions against different servers don't mix.
type Keyring struct {
	namespace string
}

// NewKeyring returns a keyring storage namespaced by the API URL's host
func NewKeyring(apiURL string) *Keyring {
	namespace := apiURL
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		namespace = u.Host
	}
	return &Keyring{namespace: namespace}
}

func (k *Keyring) key(key string) string {
	return fmt.Sprintf("%s-%s", key, k.namespace)
}

// Get retrieves a value from the keyring
func (k *Keyring) Get(key string) (string, error) {
	value, err := keyring.Get(service, k.key(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// Set persists a value in the keyring
func (k *Keyring) Set(key, value string) error {
	if err := keyring.Set(service, k.key(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes a value from the keyring
func (k *Keyring) Delete(key string) error {
	if err := keyring.Delete(service, k.key(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
