package procore

import (
	"context"
	"fmt"
)

// ConnectionResult is the outcome of a connection test
type ConnectionResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// TestConnection checks that a valid token can be obtained with the configured credentials.
func TestConnection(ctx context.Context, tokens TokenProvider) ConnectionResult {
	if _, err := tokens.GetValidToken(ctx); err != nil {
		return ConnectionResult{
			OK:      false,
			Message: fmt.Sprintf("Connection failed: %s", err.Error()),
		}
	}
	return ConnectionResult{
		OK:      true,
		Message: "Connection successful! Your authentication token has been updated.",
	}
}
