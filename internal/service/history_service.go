package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aadrigaar/portal-productos/internal/audit"
	"github.com/aadrigaar/portal-productos/internal/cache"
	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

type historyService struct {
	messages repository.MessageRepository
	cache    cache.HistoryCache
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewHistoryService creates the REST history service. The cache is
// optional; passing nil disables caching entirely.
func NewHistoryService(messages repository.MessageRepository, historyCache cache.HistoryCache, cacheTTL time.Duration) ChatHistoryService {
	return &historyService{
		messages: messages,
		cache:    historyCache,
		cacheTTL: cacheTTL,
	}
}

// GetHistory returns one page of the message log, oldest first within
// the page. Concurrent requests for the same page share a single
// storage query.
func (s *historyService) GetHistory(ctx context.Context, limit, offset int) (*domain.ChatHistoryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	if s.cache == nil {
		return s.loadPage(ctx, limit, offset)
	}

	key := s.cache.BuildKey(domain.DefaultRoom, limit, offset)
	if page, err := s.cache.Get(ctx, key); err == nil {
		return page, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Ctx(ctx).Warn().Err(err).Msg("history cache read failed")
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		page, err := s.loadPage(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("history cache write failed")
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.ChatHistoryResponse), nil
}

func (s *historyService) loadPage(ctx context.Context, limit, offset int) (*domain.ChatHistoryResponse, error) {
	recent, err := s.messages.QueryPage(ctx, domain.DefaultRoom, limit, offset)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		messages = append(messages, recent[i])
	}

	return &domain.ChatHistoryResponse{
		Messages: messages,
		Total:    len(messages),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// DeleteMessage removes one message from the log and drops every
// cached page.
func (s *historyService) DeleteMessage(ctx context.Context, actor domain.Identity, id string) (*domain.ChatMessage, error) {
	msg, err := s.messages.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	audit.LogWithTarget(ctx, audit.ActionDeleteMessage, actor.ID, id, "chat message deleted")
	return msg, nil
}

// ClearHistory wipes the message log and reports how many messages
// were removed.
func (s *historyService) ClearHistory(ctx context.Context, actor domain.Identity) (int64, error) {
	count, err := s.messages.Clear(ctx)
	if err != nil {
		return 0, err
	}

	s.invalidateCache(ctx)
	audit.Log(ctx, audit.ActionClearHistory, actor.ID, "chat history cleared")
	return count, nil
}

func (s *historyService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("history cache invalidation failed")
	}
}
