package procore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/devilmonastery/procorepress/internal/pkg/logger"
	"github.com/devilmonastery/procorepress/internal/pkg/metrics"
	"github.com/devilmonastery/procorepress/internal/pkg/urlutil"
)

// TokenProvider supplies bearer tokens to the Client.
// *TokenManager is the production implementation.
type TokenProvider interface {
	GetValidToken(ctx context.Context) (string, error)
}

// Client performs authenticated calls against the Procore REST API
type Client struct {
	baseURL          string
	defaultCompanyID string
	tokens           TokenProvider
	httpClient       *http.Client
	log              *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for REST calls.
// Its transport is wrapped with API call metrics.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// NewClient creates a REST client bound to the given credentials and token provider
func NewClient(creds Credentials, tokens TokenProvider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:          creds.BaseURL(),
		defaultCompanyID: creds.DefaultCompanyID,
		tokens:           tokens,
		httpClient:       &http.Client{Timeout: 30 * time.Second},
		log:              slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Copy so a caller-supplied client is not mutated
	hc := *c.httpClient
	hc.Transport = metrics.NewAPITransport(hc.Transport)
	c.httpClient = &hc
	c.log = logger.WithComponent(c.log, "procore-api")
	return c
}

// Request performs an authenticated call and returns the decoded JSON body.
//
// companyID overrides the default company; when neither is set no company_id
// parameter is added. A body that is not valid JSON decodes to nil.
func (c *Client) Request(ctx context.Context, endpoint, method string, body any, companyID string) (any, error) {
	if method == "" {
		method = http.MethodGet
	}

	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint = c.withCompany(endpoint, companyID)

	var reqBody io.Reader
	if body != nil && sendsBody(method) {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, newTransportError("failed to encode request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, newTransportError("failed to create request", err)
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return nil, newTransportError("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError("failed to read response body", err)
	}

	var payload any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			payload = nil
		}
	}

	c.log.Debug("request completed",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode >= 400 {
		return nil, newHTTPError(resp.StatusCode, errorMessage(payload))
	}
	return payload, nil
}

// withCompany appends company_id unless the endpoint already carries one
func (c *Client) withCompany(endpoint, companyID string) string {
	if companyID == "" {
		companyID = c.defaultCompanyID
	}
	if companyID == "" || urlutil.HasQueryParam(endpoint, "company_id") {
		return endpoint
	}
	return urlutil.AppendQueryParam(endpoint, "company_id", companyID)
}

func sendsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// errorMessage extracts body.message, defaulting to "Unknown error"
func errorMessage(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "Unknown error"
	}
	msg, ok := obj["message"]
	if !ok || msg == nil {
		return "Unknown error"
	}
	if s, ok := msg.(string); ok {
		return s
	}
	return fmt.Sprint(msg)
}
