// Package redis holds the redis-backed fast-path poll cache. Entries are a
// latency optimization over the durable quiz_posts records; a miss just means
// the caller falls back to the store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-bot-service/internal/domain"
)

// PollCache stores one JSON correlation record per active poll:
// SET quizpoll:{pollID} {json} EX ttl
type PollCache struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewPollCache(client *redis.Client, ttl time.Duration) *PollCache {
	return &PollCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PollCache) Put(ctx context.Context, pollID string, corr domain.PollCorrelation) error {
	raw, err := json.Marshal(corr)
	if err != nil {
		return fmt.Errorf("marshal correlation: %w", err)
	}
	return c.client.Set(ctx, c.key(pollID), raw, c.ttlWithJitter()).Err()
}

func (c *PollCache) Get(ctx context.Context, pollID string) (domain.PollCorrelation, bool, error) {
	raw, err := c.client.Get(ctx, c.key(pollID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PollCorrelation{}, false, nil
	}
	if err != nil {
		return domain.PollCorrelation{}, false, err
	}
	var corr domain.PollCorrelation
	if err := json.Unmarshal(raw, &corr); err != nil {
		return domain.PollCorrelation{}, false, fmt.Errorf("unmarshal correlation: %w", err)
	}
	return corr, true, nil
}

func (c *PollCache) key(pollID string) string {
	return "quizpoll:" + pollID
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func (c *PollCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
