package authflowrepo

import (
	"context"
	"errors"
	"time"
)

var (
	ErrStateNotFound = errors.New("state not found")
	ErrEmptyState    = errors.New("state cannot be empty")
)

// AuthFlowState is what Begin remembers about an authorization request until its callback arrives.
type AuthFlowState struct {
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Repo stores pending authorization states. Take is single use: a state can be taken at most once.
type Repo interface {
	Save(ctx context.Context, state string, authState *AuthFlowState) error
	Take(ctx context.Context, state string) (*AuthFlowState, error)
}
