package procore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens is a TokenProvider returning a fixed token or error
type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) GetValidToken(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

type recordedRequest struct {
	method string
	uri    string
	auth   string
	body   string
}

func newAPIServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recordedRequest{
			method: r.Method,
			uri:    r.URL.RequestURI(),
			auth:   r.Header.Get("Authorization"),
			body:   string(data),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func newTestClient(baseURL, companyID string, tokens TokenProvider) *Client {
	return NewClient(Credentials{
		ClientID:         "a",
		ClientSecret:     "b",
		APIBaseURL:       baseURL,
		DefaultCompanyID: companyID,
	}, tokens)
}

func TestRequest_CompanyIDResolution(t *testing.T) {
	tests := []struct {
		name           string
		endpoint       string
		defaultCompany string
		explicit       string
		wantURI        string
	}{
		{
			name:           "default company",
			endpoint:       "/rest/v1.0/projects/123",
			defaultCompany: "456",
			wantURI:        "/rest/v1.0/projects/123?company_id=456",
		},
		{
			name:           "explicit overrides default",
			endpoint:       "/rest/v1.0/projects/123",
			defaultCompany: "456",
			explicit:       "789",
			wantURI:        "/rest/v1.0/projects/123?company_id=789",
		},
		{
			name:     "neither set",
			endpoint: "/rest/v1.0/projects",
			wantURI:  "/rest/v1.0/projects",
		},
		{
			name:           "existing query uses ampersand",
			endpoint:       "/rest/v1.0/projects?page=2",
			defaultCompany: "456",
			wantURI:        "/rest/v1.0/projects?page=2&company_id=456",
		},
		{
			name:           "endpoint already has company_id",
			endpoint:       "/rest/v1.0/projects?company_id=1",
			defaultCompany: "456",
			explicit:       "789",
			wantURI:        "/rest/v1.0/projects?company_id=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, reqs := newAPIServer(t, http.StatusOK, `{}`)
			c := newTestClient(srv.URL, tt.defaultCompany, &staticTokens{token: "T"})

			_, err := c.Request(context.Background(), tt.endpoint, "", nil, tt.explicit)
			require.NoError(t, err)
			require.Len(t, *reqs, 1)
			assert.Equal(t, tt.wantURI, (*reqs)[0].uri)
			assert.Equal(t, http.MethodGet, (*reqs)[0].method)
		})
	}
}

func TestRequest_SendsBearerToken(t *testing.T) {
	srv, reqs := newAPIServer(t, http.StatusOK, `{"id":1}`)
	c := newTestClient(srv.URL, "", &staticTokens{token: "T1"})

	payload, err := c.Request(context.Background(), "/rest/v1.0/me", http.MethodGet, nil, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1)}, payload)
	assert.Equal(t, "Bearer T1", (*reqs)[0].auth)
}

func TestRequest_BodyOnlyForWriteMethods(t *testing.T) {
	tests := []struct {
		method   string
		wantBody bool
	}{
		{http.MethodGet, false},
		{http.MethodDelete, false},
		{http.MethodPost, true},
		{http.MethodPut, true},
		{http.MethodPatch, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			srv, reqs := newAPIServer(t, http.StatusOK, `{}`)
			c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

			_, err := c.Request(context.Background(), "/x", tt.method, map[string]string{"name": "n"}, "")
			require.NoError(t, err)

			got := (*reqs)[0].body
			if !tt.wantBody {
				assert.Empty(t, got)
				return
			}
			var decoded map[string]string
			require.NoError(t, json.Unmarshal([]byte(got), &decoded))
			assert.Equal(t, "n", decoded["name"])
		})
	}
}

func TestRequest_HTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"message":"Not Found"}`,
			message: "API Error (404): Not Found",
		},
		{
			name:    "no message field",
			status:  http.StatusForbidden,
			body:    `{"errors":["nope"]}`,
			message: "API Error (403): Unknown error",
		},
		{
			name:    "non json body",
			status:  http.StatusBadGateway,
			body:    `<html>oops</html>`,
			message: "API Error (502): Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newAPIServer(t, tt.status, tt.body)
			c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

			_, err := c.Request(context.Background(), "/x", http.MethodGet, nil, "")
			require.Error(t, err)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, KindHTTP, perr.Kind)
			assert.Equal(t, tt.status, perr.StatusCode)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestRequest_NonJSONSuccessIsNil(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusOK, `not json`)
	c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

	payload, err := c.Request(context.Background(), "/x", http.MethodGet, nil, "")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestRequest_TokenErrorPropagates(t *testing.T) {
	srv, reqs := newAPIServer(t, http.StatusOK, `{}`)
	tokenErr := newMissingCredentialsError()
	c := newTestClient(srv.URL, "", &staticTokens{err: tokenErr})

	_, err := c.Request(context.Background(), "/x", http.MethodGet, nil, "")
	assert.Same(t, tokenErr, err)
	assert.Empty(t, *reqs)
}

func TestRequest_TransportError(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusOK, `{}`)
	base := srv.URL
	srv.Close()

	c := newTestClient(base, "", &staticTokens{token: "T"})

	_, err := c.Request(context.Background(), "/x", http.MethodGet, nil, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
}

func TestNewClient_DoesNotMutateCallerHTTPClient(t *testing.T) {
	hc := &http.Client{}
	NewClient(Credentials{}, &staticTokens{}, WithHTTPClient(hc))
	assert.Nil(t, hc.Transport)
}
