package memory

import (
	"context"
	"sync"

	"quiz-bot-service/internal/domain"
)

// PollCache is the in-process fast path from poll ID to correlation info,
// used when no redis is configured.
type PollCache struct {
	mu    sync.RWMutex
	cache map[string]domain.PollCorrelation
}

func NewPollCache() *PollCache {
	return &PollCache{cache: make(map[string]domain.PollCorrelation)}
}

func (c *PollCache) Put(_ context.Context, pollID string, corr domain.PollCorrelation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[pollID] = corr
	return nil
}

func (c *PollCache) Get(_ context.Context, pollID string) (domain.PollCorrelation, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	corr, ok := c.cache[pollID]
	return corr, ok, nil
}
