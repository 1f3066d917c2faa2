package cache

import (
	"context"
	"errors"
	"time"

	"github.com/aadrigaar/portal-productos/internal/domain"
)

// ErrCacheMiss is returned when a key has no cached value.
var ErrCacheMiss = errors.New("cache miss")

// HistoryCache caches chat-history pages served over REST.
type HistoryCache interface {
	BuildKey(room string, limit, offset int) string
	Get(ctx context.Context, key string) (*domain.ChatHistoryResponse, error)
	Set(ctx context.Context, key string, page *domain.ChatHistoryResponse, ttl time.Duration) error
	// Invalidate drops all cached pages, called after admin deletions.
	Invalidate(ctx context.Context) error
	Close() error
}
