// Package auth issues and checks the bearer tokens that guard the web host's admin routes.
package auth

import (
	"context"
	"errors"
)

var ErrUnauthorized = errors.New("unauthorized")

// Admin identifies the caller of an admin route
type Admin struct {
	Subject string
	TokenID string
}

// contextKey is the key for storing admin info in context
type contextKey string

const adminContextKey contextKey = "admin"

// AdminFromContext extracts the authenticated admin from the context
func AdminFromContext(ctx context.Context) (*Admin, error) {
	admin, ok := ctx.Value(adminContextKey).(*Admin)
	if !ok || admin == nil {
		return nil, ErrUnauthorized
	}
	return admin, nil
}

// SetAdminInContext stores the authenticated admin in the context
func SetAdminInContext(ctx context.Context, admin *Admin) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}
