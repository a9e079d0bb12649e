package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint for SCAN and the size of each DEL batch.
const scanBatchSize = 100

// RedisStore implements Store on a shared go-redis client.
// Session records are plain string values keyed by SessionKey with TTL = refresh TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client. The store owns it from here on: Close closes it.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("sessions: ttl must be positive")
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return storeError("set", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, storeError("get", err)
	}
	return v, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, storeError("del", err)
	}
	return n > 0, nil
}

// ScanDelete walks the keyspace with SCAN instead of KEYS so a large keyspace never blocks
// the server. The scan runs to completion before anything is deleted: deleting under a live
// cursor lets SCAN skip keys. SCAN may return a key twice; DEL counts only keys that actually
// existed, so each record is counted once.
func (r *RedisStore) ScanDelete(ctx context.Context, prefix string) (int, error) {
	pattern := escapeGlob(prefix) + "*"
	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()

	seen := make(map[string]struct{})
	var keys []string
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return 0, storeError("scan", err)
	}

	deleted := 0
	for start := 0; start < len(keys); start += scanBatchSize {
		end := min(start+scanBatchSize, len(keys))
		n, err := r.client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			return deleted, storeError("del", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return storeError("ping", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
