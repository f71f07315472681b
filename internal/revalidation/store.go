package revalidation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
)

// VersionStore keeps a monotonically increasing version per view.
type VersionStore interface {
	Incr(ctx context.Context, view string) (int64, error)
	Versions(ctx context.Context, views ...string) (map[string]int64, error)
}

type MemoryStore struct {
	mu       sync.Mutex
	versions map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string]int64)}
}

func (m *MemoryStore) Incr(_ context.Context, view string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[view]++
	return m.versions[view], nil
}

func (m *MemoryStore) Versions(_ context.Context, views ...string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(views))
	for _, v := range views {
		out[v] = m.versions[v]
	}
	return out, nil
}

// RedisStore shares versions between server instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gearguard:views"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(view string) string {
	return r.prefix + ":" + view + ":version"
}

func (r *RedisStore) Incr(ctx context.Context, view string) (int64, error) {
	return r.client.Incr(ctx, r.key(view)).Result()
}

func (r *RedisStore) Versions(ctx context.Context, views ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(views))
	if len(views) == 0 {
		return out, nil
	}
	keys := make([]string, len(views))
	for i, v := range views {
		keys[i] = r.key(v)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read view versions: %w", err)
	}
	for i, v := range views {
		out[v] = 0
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		raw, ok := vals[i].(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("view %s has non-numeric version %q", v, raw)
		}
		out[v] = n
	}
	return out, nil
}
