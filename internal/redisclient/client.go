package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"b2b-commerce/internal/models"

	"github.com/go-redis/redis/v8"
)

const categoriesKey = "cache:categories"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks the server is reachable
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("revoked:%s", tokenID)
}

// RevokeToken blacklists a token id until it would have expired anyway
func (c *Client) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

// IsTokenRevoked checks if a token id was blacklisted
func (c *Client) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	result, err := c.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// GetCategories returns the cached category list; ok is false on a miss
func (c *Client) GetCategories(ctx context.Context) ([]models.Category, bool, error) {
	raw, err := c.rdb.Get(ctx, categoriesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var categories []models.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached categories: %w", err)
	}
	return categories, true, nil
}

// SetCategories caches the category list with TTL
func (c *Client) SetCategories(ctx context.Context, categories []models.Category, ttl time.Duration) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	return c.rdb.Set(ctx, categoriesKey, raw, ttl).Err()
}

// InvalidateCategories drops the cached category list
func (c *Client) InvalidateCategories(ctx context.Context) error {
	return c.rdb.Del(ctx, categoriesKey).Err()
}
