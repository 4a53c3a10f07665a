package security

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "commitscore"

	// DefaultAccount is the keyring entry holding the scoring API key
	DefaultAccount = "api-key"

	// EnvUseKeyring disables the keyring when set to "false"
	EnvUseKeyring = "COMMITSCORE_USE_KEYRING"
)

// ErrKeyringDisabled is returned by writes when the keyring is switched off
var ErrKeyringDisabled = errors.New("keyring usage is disabled")

// CredentialStore keeps the scoring API key in the OS keyring
type CredentialStore struct {
	service string
	account string
}

// NewCredentialStore creates a store for the default account
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		service: keyringService,
		account: DefaultAccount,
	}
}

// Enabled reports whether the keyring may be used
func (s *CredentialStore) Enabled() bool {
	return !strings.EqualFold(os.Getenv(EnvUseKeyring), "false")
}

// Store saves key, replacing any existing entry
func (s *CredentialStore) Store(key string) error {
	if !s.Enabled() {
		return ErrKeyringDisabled
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("refusing to store an empty key")
	}
	if err := keyring.Set(s.service, s.account, key); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Load returns the stored key. A missing entry or a disabled keyring yields
// an empty key and no error.
func (s *CredentialStore) Load() (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	key, err := keyring.Get(s.service, s.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get from keyring: %w", err)
	}
	return key, nil
}

// Delete removes the stored key. Deleting a missing entry is not an error.
func (s *CredentialStore) Delete() error {
	if !s.Enabled() {
		return ErrKeyringDisabled
	}
	err := keyring.Delete(s.service, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// MaskKey hides all but the last four characters of key
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
