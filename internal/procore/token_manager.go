package procore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/devilmonastery/procorepress/internal/pkg/logger"
	"github.com/devilmonastery/procorepress/internal/pkg/metrics"
)

const tokenPath = "/oauth/token"

// TokenStore persists token state after every successful grant.
// Different implementations can write to files, databases, the OS keyring, etc.
type TokenStore interface {
	SaveToken(ctx context.Context, state TokenState) error
}

// TokenManager owns the OAuth2 client-credentials token lifecycle.
//
// A cached, unexpired token is returned without any network call. Otherwise the
// refresh token is tried first (when present) and a failed refresh falls back to
// exactly one client-credentials grant.
type TokenManager struct {
	creds      Credentials
	store      TokenStore
	httpClient *http.Client
	now        func() time.Time
	log        *slog.Logger

	// mu makes get-or-refresh-then-store a critical section
	mu    sync.Mutex
	state TokenState
}

var _ oauth2.TokenSource = (*TokenManager)(nil)

// TokenManagerOption configures a TokenManager
type TokenManagerOption func(*TokenManager)

// WithTokenHTTPClient sets the HTTP client used for the token endpoint
func WithTokenHTTPClient(c *http.Client) TokenManagerOption {
	return func(m *TokenManager) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithClock overrides the time source (tests)
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(l *slog.Logger) TokenManagerOption {
	return func(m *TokenManager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewTokenManager creates a token manager seeded with previously persisted state.
// store may be nil, in which case token state lives only in memory.
func NewTokenManager(creds Credentials, initial TokenState, store TokenStore, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		creds:      creds,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		log:        slog.Default(),
		state:      initial,
	}
	for _, opt := range opts {
		opt(m)
	}

	hc := *m.httpClient
	hc.Transport = metrics.NewAPITransport(hc.Transport)
	m.httpClient = &hc
	m.log = logger.WithComponent(m.log, "procore-token")
	return m
}

// GetValidToken returns a currently valid bearer token, acquiring or refreshing one if needed.
func (m *TokenManager) GetValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Valid(m.now()) {
		return m.state.AccessToken, nil
	}

	if !m.creds.HasClientCredentials() {
		return "", newMissingCredentialsError()
	}

	if m.state.RefreshToken != "" {
		return m.refresh(ctx)
	}
	return m.acquire(ctx)
}

// Token implements oauth2.TokenSource
func (m *TokenManager) Token() (*oauth2.Token, error) {
	if _, err := m.GetValidToken(context.Background()); err != nil {
		return nil, err
	}
	return m.State().OAuth2(), nil
}

// State returns a snapshot of the current token state
func (m *TokenManager) State() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset discards the cached access and refresh tokens and persists the empty state.
// The next GetValidToken call performs a fresh client-credentials grant.
func (m *TokenManager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = TokenState{}
	if m.store == nil {
		return nil
	}
	return m.store.SaveToken(ctx, m.state)
}

// acquire performs the client_credentials grant. It never calls refresh.
func (m *TokenManager) acquire(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.creds.ClientID)
	form.Set("client_secret", m.creds.ClientSecret)

	resp, err := m.postToken(ctx, form)
	if err != nil {
		metrics.RecordTokenGrant("client_credentials", err)
		return "", err
	}

	if resp.Error != nil {
		err := newAuthError(resp.errorMessage())
		metrics.RecordTokenGrant("client_credentials", err)
		m.log.Warn("client credentials grant rejected", slog.String("error", err.Message))
		return "", err
	}

	if resp.AccessToken == "" {
		err := newInvalidResponseError()
		metrics.RecordTokenGrant("client_credentials", err)
		return "", err
	}

	metrics.RecordTokenGrant("client_credentials", nil)
	m.apply(ctx, resp)
	m.log.Debug("acquired access token", slog.Time("expires_at", m.state.Expiry()))
	return m.state.AccessToken, nil
}

// refresh performs the refresh_token grant, falling back to a single acquire when
// the token endpoint reports an error for the refresh token.
func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", m.state.RefreshToken)
	form.Set("client_id", m.creds.ClientID)
	form.Set("client_secret", m.creds.ClientSecret)

	resp, err := m.postToken(ctx, form)
	if err != nil {
		metrics.RecordTokenGrant("refresh_token", err)
		return "", err
	}

	if resp.Error != nil {
		metrics.RecordTokenGrant("refresh_token", newAuthError(resp.errorMessage()))
		m.log.Info("refresh token rejected, falling back to client credentials",
			slog.String("error", resp.errorMessage()))

		// The refresh token is spent either way; drop it before the fallback grant.
		m.state.RefreshToken = ""
		m.persist(ctx)
		return m.acquire(ctx)
	}

	if resp.AccessToken == "" {
		err := newInvalidResponseError()
		metrics.RecordTokenGrant("refresh_token", err)
		return "", err
	}

	metrics.RecordTokenGrant("refresh_token", nil)
	m.apply(ctx, resp)
	m.log.Debug("refreshed access token", slog.Time("expires_at", m.state.Expiry()))
	return m.state.AccessToken, nil
}

// postToken sends a form-encoded request to the token endpoint.
// The HTTP status is not inspected: the body decides success or failure, and a
// body that is not JSON decodes to an empty response.
func (m *TokenManager) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	endpoint := m.creds.BaseURL() + tokenPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, newTransportError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError("token request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError("failed to read token response", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		m.log.Debug("token response is not JSON",
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()))
		return &tokenResponse{}, nil
	}
	return &tr, nil
}

// apply applies a successful grant to the state and persists it
func (m *TokenManager) apply(ctx context.Context, resp *tokenResponse) {
	expiresIn := int64(defaultExpiresIn)
	if resp.ExpiresIn != nil {
		expiresIn = *resp.ExpiresIn
	}
	refreshToken := ""
	if resp.RefreshToken != nil {
		refreshToken = *resp.RefreshToken
	}

	m.state = TokenState{
		AccessToken:  resp.AccessToken,
		ExpiresAt:    m.now().Unix() + expiresIn,
		RefreshToken: refreshToken,
	}
	m.persist(ctx)
}

// persist writes the current state. The in-memory token stays usable when this fails.
func (m *TokenManager) persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveToken(ctx, m.state); err != nil {
		m.log.Warn("failed to persist token state", slog.String("error", err.Error()))
	}
}
