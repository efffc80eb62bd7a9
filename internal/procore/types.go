package procore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultAPIBaseURL is used when no API URL is configured
const DefaultAPIBaseURL = "https://api.procore.com"

// defaultExpiresIn applies when the token response omits expires_in
const defaultExpiresIn = 7200

// Credentials identify this application to the Procore API.
// They are fixed for the lifetime of a TokenManager and Client.
type Credentials struct {
	ClientID         string
	ClientSecret     string
	APIBaseURL       string
	DefaultCompanyID string
}

// BaseURL returns the API base URL without a trailing slash, falling back to DefaultAPIBaseURL
func (c Credentials) BaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if base == "" {
		return DefaultAPIBaseURL
	}
	return base
}

// HasClientCredentials reports whether both the client id and secret are set
func (c Credentials) HasClientCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// TokenState is the persisted OAuth2 token state.
type TokenState struct {
	AccessToken  string `json:"token"`
	ExpiresAt    int64  `json:"token_expires"` // epoch seconds
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether the access token can be used at the given time without a network call
func (s TokenState) Valid(now time.Time) bool {
	return s.AccessToken != "" && now.Unix() < s.ExpiresAt
}

// Expiry returns the expiry as a time.Time (zero when unset)
func (s TokenState) Expiry() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// OAuth2 converts the state into an *oauth2.Token
func (s TokenState) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry(),
	}
}

// tokenResponse is the body of POST /oauth/token.
// Fields are decoded loosely: Error is set for any non-null "error" value, and
// expires_in may be a number or a numeric string.
type tokenResponse struct {
	AccessToken      string
	ExpiresIn        *int64
	RefreshToken     *string
	Error            *string
	ErrorDescription *string
}

// UnmarshalJSON accepts any JSON object; fields of an unexpected type are
// treated as absent, except error and error_description, which keep their JSON text.
func (r *tokenResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = tokenResponse{}
	if v, ok := rawString(raw["access_token"]); ok {
		r.AccessToken = v
	}
	if v, ok := rawString(raw["refresh_token"]); ok {
		r.RefreshToken = &v
	}
	if v, ok := rawText(raw["error"]); ok {
		r.Error = &v
	}
	if v, ok := rawText(raw["error_description"]); ok {
		r.ErrorDescription = &v
	}
	if v, ok := rawSeconds(raw["expires_in"]); ok {
		r.ExpiresIn = &v
	}
	return nil
}

// errorMessage mirrors "error_description ?? error"
func (r *tokenResponse) errorMessage() string {
	if r.ErrorDescription != nil {
		return *r.ErrorDescription
	}
	if r.Error != nil {
		return *r.Error
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// rawString decodes a JSON string value
func rawString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// rawText returns a string value as-is and any other non-null value as compact JSON
func rawText(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	if s, ok := rawString(raw); ok {
		return s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(bytes.TrimSpace(raw)), true
	}
	return buf.String(), true
}

// rawSeconds accepts 7200, 7200.0 and "7200"
func rawSeconds(raw json.RawMessage) (int64, bool) {
	if isNull(raw) {
		return 0, false
	}
	text := string(bytes.TrimSpace(raw))
	if s, ok := rawString(raw); ok {
		text = strings.TrimSpace(s)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// Object is a decoded JSON object returned by the REST API.
type Object map[string]any

// Has reports whether key is present with a non-null value
func (o Object) Has(key string) bool {
	v, ok := o[key]
	return ok && v != nil
}

// Field returns the raw value for key
func (o Object) Field(key string) (any, bool) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns key as a string; numbers and booleans are formatted, other values yield ""
func (o Object) String(key string) string {
	v, ok := o.Field(key)
	if !ok {
		return ""
	}
	return FormatScalar(v)
}

// FormatScalar formats a decoded JSON scalar; objects, arrays and null yield ""
func FormatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatNumber(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// StringOr returns key as a string, or def when the key is absent or null
func (o Object) StringOr(key, def string) string {
	if !o.Has(key) {
		return def
	}
	return o.String(key)
}

// Bool reports PHP-style truthiness of key: false, 0, "", "0", null and empty collections are false
func (o Object) Bool(key string) bool {
	v, ok := o.Field(key)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0"
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// asObject converts a decoded payload to an Object; other shapes yield an empty Object
func asObject(payload any) Object {
	if m, ok := payload.(map[string]any); ok {
		return Object(m)
	}
	return Object{}
}

// asList converts a decoded payload to a list of Objects; non-object elements are skipped
func asList(payload any) []Object {
	items, ok := payload.([]any)
	if !ok {
		return nil
	}
	list := make([]Object, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			list = append(list, Object(m))
		}
	}
	return list
}
