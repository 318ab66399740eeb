package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toolvault/toolvault/internal/domain"
	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

const toolKeyPrefix = "tool:"

// ToolCache is a Redis read-through cache for individual tool records.
// Moderation and deletion invalidate entries so cached ratings never
// outlive a committed recompute by more than the invalidation round trip.
type ToolCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewToolCache creates a new Redis-backed tool cache with the given TTL.
func NewToolCache(client *redis.Client, ttl time.Duration) *ToolCache {
	return &ToolCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached tool by ID. A cache miss surfaces as NotFound.
func (c *ToolCache) Get(ctx context.Context, id string) (*domain.Tool, error) {
	key := toolKeyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cached tool", id)
		}
		return nil, fmt.Errorf("redis get tool: %w", err)
	}

	var tool domain.Tool
	if err := json.Unmarshal(data, &tool); err != nil {
		return nil, fmt.Errorf("unmarshal cached tool: %w", err)
	}

	return &tool, nil
}

// Set stores a tool with the configured TTL.
func (c *ToolCache) Set(ctx context.Context, tool *domain.Tool) error {
	key := toolKeyPrefix + tool.ID

	data, err := json.Marshal(tool)
	if err != nil {
		return fmt.Errorf("marshal tool: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set tool: %w", err)
	}

	return nil
}

// Invalidate removes a tool from the cache.
func (c *ToolCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, toolKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del tool: %w", err)
	}
	return nil
}
