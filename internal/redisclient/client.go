package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"order-agent/internal/models"
	"order-agent/internal/util"

	"github.com/go-redis/redis/v8"
)

const messageDedupTTL = 24 * time.Hour

type Client struct {
	rdb        *redis.Client
	sessionTTL time.Duration
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int, sessionTTL time.Duration) (*Client, error) {
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

	return NewClientWithRedis(rdb, sessionTTL), nil
}

// NewClientWithRedis wraps an existing connection. A zero TTL keeps
// sessions forever.
func NewClientWithRedis(rdb *redis.Client, sessionTTL time.Duration) *Client {
	return &Client{rdb: rdb, sessionTTL: sessionTTL}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

// Load returns the stored session, or nil when the user has none
func (c *Client) Load(ctx context.Context, userID string) (*models.Session, error) {
	raw, err := c.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		util.SessionStoreErrorsTotal.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		util.SessionStoreErrorsTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save writes the session and refreshes its TTL
func (c *Client) Save(ctx context.Context, userID string, sess *models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := c.rdb.Set(ctx, sessionKey(userID), raw, c.sessionTTL).Err(); err != nil {
		util.SessionStoreErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// MarkMessageSeen records a provider message id. It returns false when the
// id was already recorded, meaning the delivery is a retry.
func (c *Client) MarkMessageSeen(ctx context.Context, messageID string) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("idempotency:msg:%s", messageID), "1", messageDedupTTL).Result()
}
