package procore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/procorepress/internal/pkg/metrics"
)

// memoryStore records every saved token state
type memoryStore struct {
	mu    sync.Mutex
	saved []TokenState
	err   error
}

func (s *memoryStore) SaveToken(_ context.Context, state TokenState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, state)
	return s.err
}

func (s *memoryStore) last() TokenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return TokenState{}
	}
	return s.saved[len(s.saved)-1]
}

// tokenServer is a fake token endpoint that replies with canned bodies in order
type tokenServer struct {
	*httptest.Server
	calls  atomic.Int32
	grants []string
	mu     sync.Mutex
}

func newTokenServer(t *testing.T, bodies ...string) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(ts.calls.Add(1)) - 1
		assert.Equal(t, tokenPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())

		ts.mu.Lock()
		ts.grants = append(ts.grants, r.PostForm.Get("grant_type"))
		ts.mu.Unlock()

		body := `{}`
		if n < len(bodies) {
			body = bodies[n]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) grantTypes() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.grants...)
}

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func testCreds(baseURL string) Credentials {
	return Credentials{ClientID: "a", ClientSecret: "b", APIBaseURL: baseURL}
}

func TestGetValidToken_CachedTokenSkipsNetwork(t *testing.T) {
	ts := newTokenServer(t)
	store := &memoryStore{}
	initial := TokenState{AccessToken: "cached", ExpiresAt: 2000, RefreshToken: "r"}

	m := NewTokenManager(testCreds(ts.URL), initial, store, WithClock(fixedClock(1000)))

	token, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Zero(t, ts.calls.Load())
	assert.Empty(t, store.saved)
}

func TestGetValidToken_AcquiresWithClientCredentials(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"T1","expires_in":7200}`)
	store := &memoryStore{}

	m := NewTokenManager(testCreds(ts.URL), TokenState{}, store, WithClock(fixedClock(1000)))

	token, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T1", token)
	assert.Equal(t, []string{"client_credentials"}, ts.grantTypes())

	want := TokenState{AccessToken: "T1", ExpiresAt: 1000 + 7200, RefreshToken: ""}
	assert.Equal(t, want, m.State())
	assert.Equal(t, want, store.last())
}

func TestGetValidToken_DefaultsExpiry(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"T1","refresh_token":"R1"}`)

	m := NewTokenManager(testCreds(ts.URL), TokenState{}, nil, WithClock(fixedClock(50)))

	_, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(50+defaultExpiresIn), m.State().ExpiresAt)
	assert.Equal(t, "R1", m.State().RefreshToken)
}

func TestGetValidToken_RefreshSuccess(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"T2","expires_in":60,"refresh_token":"R2"}`)
	store := &memoryStore{}
	initial := TokenState{AccessToken: "old", ExpiresAt: 500, RefreshToken: "R1"}

	m := NewTokenManager(testCreds(ts.URL), initial, store, WithClock(fixedClock(1000)))

	token, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T2", token)
	assert.Equal(t, []string{"refresh_token"}, ts.grantTypes())
	assert.Equal(t, TokenState{AccessToken: "T2", ExpiresAt: 1060, RefreshToken: "R2"}, store.last())
}

func TestGetValidToken_RefreshEmptySuccessIsInvalid(t *testing.T) {
	ts := newTokenServer(t, `{"token_type":"bearer","expires_in":60}`, `{"access_token":"unused"}`)
	store := &memoryStore{}
	initial := TokenState{AccessToken: "old", ExpiresAt: 500, RefreshToken: "R1"}

	m := NewTokenManager(testCreds(ts.URL), initial, store, WithClock(fixedClock(1000)))

	_, err := m.GetValidToken(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidResponse), "got %v", err)
	assert.Equal(t, []string{"refresh_token"}, ts.grantTypes())
	assert.Equal(t, initial, m.State())
	assert.Empty(t, store.saved)
}

func TestGetValidToken_RefreshErrorFallsBackOnce(t *testing.T) {
	tests := []struct {
		name        string
		refreshBody string
	}{
		{
			name:        "string error",
			refreshBody: `{"error":"invalid_grant","error_description":"Refresh token revoked"}`,
		},
		{
			name:        "object error",
			refreshBody: `{"error":{"code":"invalid_grant"}}`,
		},
		{
			name:        "bool error",
			refreshBody: `{"error":true}`,
		},
		{
			name:        "numeric description",
			refreshBody: `{"error":"invalid_grant","error_description":401}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.refreshBody, `{"access_token":"T3","expires_in":100}`)
			store := &memoryStore{}
			initial := TokenState{AccessToken: "old", ExpiresAt: 1, RefreshToken: "R1"}

			m := NewTokenManager(testCreds(ts.URL), initial, store, WithClock(fixedClock(1000)))

			token, err := m.GetValidToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "T3", token)
			assert.Equal(t, []string{"refresh_token", "client_credentials"}, ts.grantTypes())

			require.Len(t, store.saved, 2)
			assert.Empty(t, store.saved[0].RefreshToken, "refresh token must be cleared before the fallback")
			assert.Equal(t, "T3", store.saved[1].AccessToken)
		})
	}
}

func TestGetValidToken_RefreshAndAcquireBothFail(t *testing.T) {
	tests := []struct {
		name        string
		acquireBody string
		kind        ErrorKind
		message     string
	}{
		{
			name:        "auth error",
			acquireBody: `{"error":"invalid_client"}`,
			kind:        KindAuth,
			message:     "invalid_client",
		},
		{
			name:        "no access token",
			acquireBody: `{"token_type":"bearer"}`,
			kind:        KindInvalidResponse,
			message:     "Invalid response from Procore API",
		},
		{
			name:        "not json",
			acquireBody: `<html>bad gateway</html>`,
			kind:        KindInvalidResponse,
			message:     "Invalid response from Procore API",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, `{"error":"invalid_grant"}`, tt.acquireBody)
			initial := TokenState{RefreshToken: "R1"}

			m := NewTokenManager(testCreds(ts.URL), initial, &memoryStore{}, WithClock(fixedClock(1000)))

			_, err := m.GetValidToken(context.Background())
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.message, err.Error())
			assert.Equal(t, int32(2), ts.calls.Load())
			assert.Empty(t, m.State().RefreshToken)
		})
	}
}

func TestGetValidToken_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{name: "no client id", creds: Credentials{ClientSecret: "b"}},
		{name: "no client secret", creds: Credentials{ClientID: "a"}},
		{name: "neither", creds: Credentials{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t)
			tt.creds.APIBaseURL = ts.URL

			m := NewTokenManager(tt.creds, TokenState{RefreshToken: "R1"}, nil)

			_, err := m.GetValidToken(context.Background())
			require.Error(t, err)
			assert.True(t, IsKind(err, KindMissingCredentials))
			assert.Equal(t, "Client ID and Client Secret are required", err.Error())
			assert.Zero(t, ts.calls.Load())
		})
	}
}

func TestGetValidToken_AcquireAuthError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "error only", body: `{"error":"unauthorized_client"}`, message: "unauthorized_client"},
		{name: "description wins", body: `{"error":"invalid_client","error_description":"Bad secret"}`, message: "Bad secret"},
		{name: "bool error", body: `{"error":true}`, message: "true"},
		{name: "object error", body: `{"error": {"code": "invalid_grant"}}`, message: `{"code":"invalid_grant"}`},
		{name: "error with token", body: `{"error":"x","access_token":"T1"}`, message: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.body)

			m := NewTokenManager(testCreds(ts.URL), TokenState{}, nil)

			_, err := m.GetValidToken(context.Background())
			require.Error(t, err)
			assert.Equal(t, KindAuth, KindOf(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestGetValidToken_ExpiresInFormats(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{name: "integer", body: `{"access_token":"T1","expires_in":3600}`, want: 1000 + 3600},
		{name: "float", body: `{"access_token":"T1","expires_in":7200.0}`, want: 1000 + 7200},
		{name: "numeric string", body: `{"access_token":"T1","expires_in":"7200"}`, want: 1000 + 7200},
		{name: "null", body: `{"access_token":"T1","expires_in":null}`, want: 1000 + defaultExpiresIn},
		{name: "garbage string", body: `{"access_token":"T1","expires_in":"soon"}`, want: 1000 + defaultExpiresIn},
		{name: "null error is ignored", body: `{"access_token":"T1","expires_in":60,"error":null}`, want: 1000 + 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.body)

			m := NewTokenManager(testCreds(ts.URL), TokenState{}, nil, WithClock(fixedClock(1000)))

			token, err := m.GetValidToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "T1", token)
			assert.Equal(t, tt.want, m.State().ExpiresAt)
		})
	}
}

func TestGetValidToken_TransportError(t *testing.T) {
	ts := newTokenServer(t)
	url := ts.URL
	ts.Close()

	m := NewTokenManager(testCreds(url), TokenState{}, nil)

	_, err := m.GetValidToken(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.NotNil(t, perr.Cause)
}

func TestGetValidToken_PersistFailureDoesNotFail(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"T1"}`)
	store := &memoryStore{err: errors.New("disk full")}

	m := NewTokenManager(testCreds(ts.URL), TokenState{}, store)

	token, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T1", token)
}

func TestGetValidToken_ConcurrentCallersShareOneGrant(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"T1","expires_in":3600}`)

	m := NewTokenManager(testCreds(ts.URL), TokenState{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := m.GetValidToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "T1", token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ts.calls.Load())
}

func TestTokenManager_TokenSource(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"T1","expires_in":3600,"refresh_token":"R1"}`)

	m := NewTokenManager(testCreds(ts.URL), TokenState{}, nil, WithClock(fixedClock(1000)))

	tok, err := m.Token()
	require.NoError(t, err)
	assert.Equal(t, "T1", tok.AccessToken)
	assert.Equal(t, "R1", tok.RefreshToken)
	assert.Equal(t, time.Unix(4600, 0), tok.Expiry)
}

func TestTokenManager_Reset(t *testing.T) {
	store := &memoryStore{}
	m := NewTokenManager(testCreds("http://unused"), TokenState{AccessToken: "x", ExpiresAt: 9, RefreshToken: "r"}, store)

	require.NoError(t, m.Reset(context.Background()))
	assert.Equal(t, TokenState{}, m.State())
	assert.Equal(t, TokenState{}, store.last())
}

func TestTokenManager_RecordsTokenEndpointCalls(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"T1"}`)
	hc := &http.Client{}
	calls := metrics.APICalls.WithLabelValues(http.MethodPost, tokenPath, "200")
	before := testutil.ToFloat64(calls)

	m := NewTokenManager(testCreds(ts.URL), TokenState{}, nil, WithTokenHTTPClient(hc))

	_, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(calls))
	assert.Nil(t, hc.Transport)
}
