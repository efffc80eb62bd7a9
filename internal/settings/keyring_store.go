package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/devilmonastery/procorepress/internal/pkg/metrics"
)

// DefaultKeyringService is the keyring service name used when none is configured
const DefaultKeyringService = "procorepress"

// KeyringStore keeps the settings record in the OS keyring as a JSON blob
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore creates a keyring store; profile separates multiple installs
func NewKeyringStore(service, profile string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	if profile == "" {
		profile = "default"
	}
	return &KeyringStore{service: service, user: fmt.Sprintf("settings:%s", profile)}
}

// Load reads the record from the keyring
func (k *KeyringStore) Load(_ context.Context) (s Settings, err error) {
	defer func() { metrics.RecordStoreOperation("keyring", "load", ignoreNotFound(err)) }()

	value, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("failed to read keyring: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Save writes the record to the keyring
func (k *KeyringStore) Save(_ context.Context, s Settings) (err error) {
	defer func() { metrics.RecordStoreOperation("keyring", "save", err) }()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := keyring.Set(k.service, k.user, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Close is a no-op
func (k *KeyringStore) Close() error {
	return nil
}
