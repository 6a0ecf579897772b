// Package secrets stores the assistant service bearer token.
// On macOS the token lives in the system Keychain. Elsewhere a no-op store is
// used and the token must come from the config file or the --token flag.
package secrets

import "errors"

// ServiceName is the keychain service for kyr credentials.
const ServiceName = "kyr"

// AccountAPIToken is the account holding the bearer token.
const AccountAPIToken = "api-token"

// ErrNotFound is returned when a credential is not found in the store.
var ErrNotFound = errors.New("credential not found")

// ErrNotSupported is returned when the secret store is not supported on the current platform.
var ErrNotSupported = errors.New("secret store not supported on this platform")

// SecretStore provides secure credential storage.
// Implementations should be safe for concurrent use.
type SecretStore interface {
	// Get returns ErrNotFound if the credential does not exist.
	Get(service, account string) (string, error)
	// Set creates or replaces a credential.
	Set(service, account, password string) error
	// Delete returns ErrNotFound if the credential does not exist.
	Delete(service, account string) error
	IsSupported() bool
}

// store is set by the platform-specific init().
var store SecretStore

// Default returns the store for the current platform, never nil.
func Default() SecretStore {
	if store == nil {
		store = &NoopStore{}
	}
	return store
}

// APIToken reads the bearer token from s.
func APIToken(s SecretStore) (string, error) {
	return s.Get(ServiceName, AccountAPIToken)
}

// SetAPIToken stores the bearer token in s.
func SetAPIToken(s SecretStore, token string) error {
	return s.Set(ServiceName, AccountAPIToken, token)
}

// DeleteAPIToken removes the bearer token from s.
func DeleteAPIToken(s SecretStore) error {
	return s.Delete(ServiceName, AccountAPIToken)
}
