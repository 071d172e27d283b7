package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Stats cache kinds
const (
	StatsKindInventory = "inventory"
	StatsKindCustomers = "customers"
)

type Client struct {
	rdb            *redis.Client
	statsTTL       time.Duration
	idempotencyTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, statsTTL, idempotencyTTL time.Duration) (*Client, error) {
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

	return &Client{
		rdb:            rdb,
		statsTTL:       statsTTL,
		idempotencyTTL: idempotencyTTL,
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func statsKey(kind, userID string) string {
	return fmt.Sprintf("stats:%s:%s", kind, userID)
}

// GetStats retrieves a cached stats payload; the second return reports a hit
func (c *Client) GetStats(ctx context.Context, kind, userID string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, statsKey(kind, userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// SetStats caches a stats payload with the configured TTL
func (c *Client) SetStats(ctx context.Context, kind, userID string, payload []byte) error {
	return c.rdb.Set(ctx, statsKey(kind, userID), payload, c.statsTTL).Err()
}

// InvalidateStats drops every cached stats payload for a user. Called after
// ledger writes and direct CRUD edits so derived views recompute.
func (c *Client) InvalidateStats(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx,
		statsKey(StatsKindInventory, userID),
		statsKey(StatsKindCustomers, userID),
	).Err()
}

func idempotencyKey(userID, key string) string {
	return fmt.Sprintf("idempotency:sale:%s:%s", userID, key)
}

// GetSaleID looks up the transaction id recorded for a previous request with
// the same idempotency key
func (c *Client) GetSaleID(ctx context.Context, userID, key string) (string, bool, error) {
	id, err := c.rdb.Get(ctx, idempotencyKey(userID, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// StoreSaleID remembers the transaction id recorded for an idempotency key
func (c *Client) StoreSaleID(ctx context.Context, userID, key, transactionID string) error {
	return c.rdb.Set(ctx, idempotencyKey(userID, key), transactionID, c.idempotencyTTL).Err()
}
