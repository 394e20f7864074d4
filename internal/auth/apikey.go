// Package auth holds the API key domain type and its repository contract.
package auth

import "context"

// Key holds the identity and permission data for a validated API key.
type Key struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Repository provides lookup of API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Key, error)
}
