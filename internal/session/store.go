package session

import (
	"context"
	"errors"
	"time"

	"github.com/xxxsen/concierge/internal/chat"
)

var ErrNotFound = errors.New("session not found")

// Store keeps one conversation per session id.
type Store interface {
	// Get returns ErrNotFound when the session does not exist or has expired.
	Get(ctx context.Context, id string) (chat.Conversation, error)
	Save(ctx context.Context, id string, conv chat.Conversation) error
	Delete(ctx context.Context, id string) error
	// Cleanup drops sessions idle for longer than maxAge and reports how
	// many were removed. Stores with native expiry may return 0.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}
