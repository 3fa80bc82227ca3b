package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"slotgen/internal/model"
)

// BatchCache keeps each chat's most recent batch so it can be re-rendered
// and exported later. Batches live in Redis when a client is configured and
// in process memory otherwise.
type BatchCache struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time

	mu  sync.Mutex
	mem map[int64]memEntry
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewBatchCache(client *redis.Client, ttl time.Duration) *BatchCache {
	return &BatchCache{
		redis: client,
		ttl:   ttl,
		now:   time.Now,
		mem:   make(map[int64]memEntry),
	}
}

func batchKey(chatID int64) string {
	return fmt.Sprintf("batch:%d", chatID)
}

// Store saves the batch under its chat ID.
func (c *BatchCache) Store(ctx context.Context, batch *model.Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	if c.redis != nil {
		return c.redis.Set(ctx, batchKey(batch.ChatID), data, c.ttl).Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[batch.ChatID] = memEntry{data: data, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Load returns the last stored batch for a chat, or nil when there is none.
func (c *BatchCache) Load(ctx context.Context, chatID int64) (*model.Batch, error) {
	var data []byte

	if c.redis != nil {
		val, err := c.redis.Get(ctx, batchKey(chatID)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		data = []byte(val)
	} else {
		c.mu.Lock()
		entry, ok := c.mem[chatID]
		if ok && c.now().After(entry.expiresAt) {
			delete(c.mem, chatID)
			ok = false
		}
		c.mu.Unlock()
		if !ok {
			return nil, nil
		}
		data = entry.data
	}

	var batch model.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("unmarshal batch: %w", err)
	}
	return &batch, nil
}

// Delete drops the stored batch for a chat.
func (c *BatchCache) Delete(ctx context.Context, chatID int64) error {
	if c.redis != nil {
		return c.redis.Del(ctx, batchKey(chatID)).Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.mem, chatID)
	return nil
}
