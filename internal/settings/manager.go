package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/devilmonastery/procorepress/internal/procore"
)

// Manager holds the current settings record on top of a Store.
// It implements procore.TokenStore.
type Manager struct {
	store     Store
	overrides procore.Credentials
	log       *slog.Logger

	mu      sync.Mutex
	current Settings
}

var _ procore.TokenStore = (*Manager)(nil)

// NewManager loads the record from store. A store with nothing saved yields an empty record.
// Non-empty fields of overrides (from config or environment) take precedence over stored credentials.
func NewManager(ctx context.Context, store Store, overrides procore.Credentials) (*Manager, error) {
	m := &Manager{
		store:     store,
		overrides: overrides,
		log:       slog.Default().With(slog.String("component", "settings")),
	}

	current, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		m.log.Debug("no stored settings, starting empty")
	case err != nil:
		return nil, err
	default:
		if err := current.Validate(); err != nil {
			return nil, fmt.Errorf("stored settings are invalid: %w", err)
		}
		m.current = current
	}
	return m, nil
}

// Settings returns a copy of the stored record
func (m *Manager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Credentials returns stored credentials with overrides applied
func (m *Manager) Credentials() procore.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds := m.current.Credentials()
	if m.overrides.ClientID != "" {
		creds.ClientID = m.overrides.ClientID
	}
	if m.overrides.ClientSecret != "" {
		creds.ClientSecret = m.overrides.ClientSecret
	}
	if m.overrides.APIBaseURL != "" {
		creds.APIBaseURL = m.overrides.APIBaseURL
	}
	if m.overrides.DefaultCompanyID != "" {
		creds.DefaultCompanyID = m.overrides.DefaultCompanyID
	}
	return creds
}

// TokenState returns the stored token fields
func (m *Manager) TokenState() procore.TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.TokenState()
}

// SaveToken merges the token fields into the record and saves the whole record
func (m *Manager) SaveToken(ctx context.Context, state procore.TokenState) error {
	return m.Update(ctx, func(s *Settings) {
		*s = s.WithTokenState(state)
	})
}

// Update applies fn to a copy of the record, validates it, and saves it.
// The in-memory record only changes when the save succeeds.
func (m *Manager) Update(ctx context.Context, fn func(*Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	if err := m.store.Save(ctx, next); err != nil {
		return err
	}
	m.current = next
	return nil
}

// TokenManager builds a procore.TokenManager seeded from the stored token state
func (m *Manager) TokenManager(opts ...procore.TokenManagerOption) *procore.TokenManager {
	return procore.NewTokenManager(m.Credentials(), m.TokenState(), m, opts...)
}
