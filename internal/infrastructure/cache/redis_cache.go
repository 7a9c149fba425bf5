package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

// RedisStockCache cache des lectures de stock dans Redis, valeurs JSON sous un préfixe commun.
type RedisStockCache struct {
	client *redis.Client
	prefix string
	genKey string
}

// NewRedisStockCache ouvre le client Redis. Le préfixe isole les clés du grand livre.
func NewRedisStockCache(addr, password string, db int, prefix string) *RedisStockCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if prefix == "" {
		prefix = "stock:"
	}
	// hors du préfixe pour survivre au SCAN de Invalidate
	return &RedisStockCache{client: client, prefix: prefix, genKey: "gen:" + prefix}
}

func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func (c *RedisStockCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisStockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}

func (c *RedisStockCache) Generation(ctx context.Context) (uint64, error) {
	return generation(c.client.Get(ctx, c.genKey))
}

// generation lit le compteur; une clé absente vaut zéro.
func generation(cmd *redis.StringCmd) (uint64, error) {
	gen, err := cmd.Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Fill écrit sous WATCH de la génération: une invalidation concurrente fait échouer l'EXEC
// et l'entrée n'est pas écrite.
func (c *RedisStockCache) Fill(ctx context.Context, gen uint64, key string, value any, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := generation(tx.Get(ctx, c.genKey))
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.prefix+key, payload, ttl)
			return nil
		})
		return err
	}, c.genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate incrémente la génération puis supprime toutes les clés du préfixe
// (SCAN plutôt que KEYS pour ne pas bloquer Redis).
func (c *RedisStockCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.genKey).Err(); err != nil {
		return fmt.Errorf("incr cache generation: %w", err)
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
