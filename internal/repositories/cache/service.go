// Package cache wraps Redis behind a typed cache service. It caches
// processed transactions (idempotency fast path) and derived scanner
// capability snapshots so repeat clients skip re-derivation.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scanpay/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Transaction caching

func (s *CacheService) CacheTransaction(ctx context.Context, tx *models.FinancialTransaction) error {
	key := s.GenerateKey("transaction", "id", tx.TransactionID)
	return s.SetWithTTL(ctx, key, tx, time.Hour)
}

func (s *CacheService) GetTransaction(ctx context.Context, transactionID string) (*models.FinancialTransaction, error) {
	key := s.GenerateKey("transaction", "id", transactionID)
	var tx models.FinancialTransaction
	found, err := s.Get(ctx, key, &tx)
	if err != nil || !found {
		return nil, err
	}
	return &tx, nil
}

// Capability snapshot caching, keyed by the client session.

func (s *CacheService) CacheCapabilities(ctx context.Context, sessionKey string, caps *models.BrowserCapabilities) error {
	key := s.GenerateKey("capabilities", "session", sessionKey)
	return s.Set(ctx, key, caps)
}

func (s *CacheService) GetCapabilities(ctx context.Context, sessionKey string) (*models.BrowserCapabilities, error) {
	key := s.GenerateKey("capabilities", "session", sessionKey)
	var caps models.BrowserCapabilities
	found, err := s.Get(ctx, key, &caps)
	if err != nil || !found {
		return nil, err
	}
	return &caps, nil
}

func (s *CacheService) InvalidateCapabilities(ctx context.Context, sessionKey string) error {
	return s.Delete(ctx, s.GenerateKey("capabilities", "session", sessionKey))
}

// HealthCheck pings Redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// FlushAll flushes all keys from the cache
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
