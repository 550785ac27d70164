// Package auth persists the bearer credential between CLI invocations.
package auth

import (
	"context"
	"errors"
)

// TokenKey is the well-known key the bearer token is stored under
const TokenKey = "token"

// ErrNotFound is returned by Get when nothing is stored under the key
var ErrNotFound = errors.New("not authenticated. Please run 'campushire login' first")

// Store defines the persistent key-value operations the session needs.
// Implementations are scoped to one API server.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
