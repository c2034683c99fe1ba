package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campushub/internal/models"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(cfg Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: rdb}, nil
}

// IncrWindow increments the fixed-window counter for key and returns the new
// count. The counter expires with the window so stale keys clean themselves
// up. Counters live in Redis rather than process memory so the rate limit
// holds across server instances.
func (r *RedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count, nil
}

// GetSettlementStatus reads the cached status snapshot for an organiser.
// The cache is a read-through optimization only; the processor account
// object stays authoritative.
func (r *RedisClient) GetSettlementStatus(ctx context.Context, organiserID int64) (*models.SettlementStatusResponse, error) {
	raw, err := r.client.Get(ctx, settlementStatusKey(organiserID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("settlement status cache get: %w", err)
	}

	var status models.SettlementStatusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("settlement status cache decode: %w", err)
	}
	return &status, nil
}

// SetSettlementStatus caches a freshly computed status snapshot with a short
// TTL so capability flags are refreshed, not trusted indefinitely.
func (r *RedisClient) SetSettlementStatus(ctx context.Context, organiserID int64, status *models.SettlementStatusResponse, ttl time.Duration) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("settlement status cache encode: %w", err)
	}
	return r.client.Set(ctx, settlementStatusKey(organiserID), raw, ttl).Err()
}

func settlementStatusKey(organiserID int64) string {
	return fmt.Sprintf("settlement:status:%d", organiserID)
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
