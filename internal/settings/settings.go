// Package settings persists the Procore integration settings record: the
// application credentials plus the current OAuth token state.
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/devilmonastery/procorepress/internal/procore"
)

// ErrNotFound is returned by Store.Load when nothing has been saved yet
var ErrNotFound = errors.New("settings not found")

// Settings is the full persisted record. It is always written as one unit.
type Settings struct {
	ClientID         string `json:"client_id" yaml:"client_id" db:"client_id"`
	ClientSecret     string `json:"client_secret" yaml:"client_secret" db:"client_secret"`
	APIURL           string `json:"api_url" yaml:"api_url" db:"api_url"`
	DefaultCompanyID string `json:"default_company_id" yaml:"default_company_id" db:"default_company_id"`
	Token            string `json:"token" yaml:"token" db:"token"`
	TokenExpires     int64  `json:"token_expires" yaml:"token_expires" db:"token_expires"`
	RefreshToken     string `json:"refresh_token" yaml:"refresh_token" db:"refresh_token"`
}

// Store loads and saves the settings record
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Close() error
}

// Validate checks a record read from storage
func (s Settings) Validate() error {
	if s.TokenExpires < 0 {
		return fmt.Errorf("token_expires must not be negative, got %d", s.TokenExpires)
	}
	if s.APIURL != "" {
		u, err := url.Parse(s.APIURL)
		if err != nil {
			return fmt.Errorf("invalid api_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("api_url must be an http or https URL, got %q", s.APIURL)
		}
		if u.Host == "" {
			return fmt.Errorf("api_url has no host: %q", s.APIURL)
		}
	}
	return nil
}

// Credentials returns the stored application credentials
func (s Settings) Credentials() procore.Credentials {
	return procore.Credentials{
		ClientID:         s.ClientID,
		ClientSecret:     s.ClientSecret,
		APIBaseURL:       s.APIURL,
		DefaultCompanyID: s.DefaultCompanyID,
	}
}

// TokenState returns the stored token fields
func (s Settings) TokenState() procore.TokenState {
	return procore.TokenState{
		AccessToken:  s.Token,
		ExpiresAt:    s.TokenExpires,
		RefreshToken: s.RefreshToken,
	}
}

// WithTokenState returns a copy of s with the token fields replaced
func (s Settings) WithTokenState(state procore.TokenState) Settings {
	s.Token = state.AccessToken
	s.TokenExpires = state.ExpiresAt
	s.RefreshToken = state.RefreshToken
	return s
}
