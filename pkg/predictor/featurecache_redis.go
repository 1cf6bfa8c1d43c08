package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultFeatureTTL is used when a RedisFeatureCache is given no TTL.
const DefaultFeatureTTL = 24 * time.Hour

// RedisFeatureCache shares aggregated feature sets between processes.
type RedisFeatureCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeatureCache(client *redis.Client, ttl time.Duration) *RedisFeatureCache {
	if ttl <= 0 {
		ttl = DefaultFeatureTTL
	}
	return &RedisFeatureCache{client: client, ttl: ttl}
}

func redisFeatureKey(key string) string {
	return fmt.Sprintf("features:%s", key)
}

func (c *RedisFeatureCache) Load(ctx context.Context, key string) (*FeatureSet, bool, error) {
	data, err := c.client.Get(ctx, redisFeatureKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading features: %w", err)
	}
	fs, err := decodeFeatureSet(data)
	if err != nil {
		return nil, false, err
	}
	return fs, true, nil
}

func (c *RedisFeatureCache) Store(ctx context.Context, key string, fs *FeatureSet) error {
	data, err := json.Marshal(fs.Vectors())
	if err != nil {
		return fmt.Errorf("marshaling features: %w", err)
	}
	return c.client.Set(ctx, redisFeatureKey(key), data, c.ttl).Err()
}

func decodeFeatureSet(data []byte) (*FeatureSet, error) {
	var vectors []*TeamFeatureVector
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("unmarshaling features: %w", err)
	}
	return NewFeatureSet(vectors), nil
}
