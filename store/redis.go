// Package store provides persistent ProfileStore backends.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	nocturne "github.com/taboocollar/whole-life-inc"
)

// RedisProfileStore persists user profiles as JSON values in Redis.
// Keys are namespaced as "{prefix}:profile:{userID}".
//
// Update serializes read-modify-write cycles per user id with an
// in-process mutex, which is sufficient for a single engine instance
// owning its Redis namespace.
type RedisProfileStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	ctx    context.Context

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ nocturne.ProfileStore = (*RedisProfileStore)(nil)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Prefix string        // key prefix, default "nocturne"
	TTL    time.Duration // profile expiry, 0 = no expiry
}

// NewRedisProfileStore creates a ProfileStore backed by Redis.
func NewRedisProfileStore(client *redis.Client, config ...RedisConfig) *RedisProfileStore {
	cfg := RedisConfig{Prefix: "nocturne"}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "nocturne"
	}
	return &RedisProfileStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		ctx:    context.Background(),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (r *RedisProfileStore) key(userID string) string {
	return fmt.Sprintf("%s:profile:%s", r.prefix, userID)
}

func (r *RedisProfileStore) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

// Get fetches a profile. Unknown users return (nil, nil).
func (r *RedisProfileStore) Get(userID string) (*nocturne.UserProfile, error) {
	data, err := r.client.Get(r.ctx, r.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get profile %s: %w", userID, err)
	}
	var p nocturne.UserProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return &p, nil
}

// Put stores a profile, overwriting any existing value.
func (r *RedisProfileStore) Put(profile *nocturne.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.UserID, err)
	}
	if err := r.client.Set(r.ctx, r.key(profile.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis put profile %s: %w", profile.UserID, err)
	}
	return nil
}

// Update applies fn to the user's profile under the per-user lock,
// creating a fresh profile if none exists, and persists the result.
func (r *RedisProfileStore) Update(userID string, fn func(*nocturne.UserProfile)) (*nocturne.UserProfile, error) {
	l := r.userLock(userID)
	l.Lock()
	defer l.Unlock()

	p, err := r.Get(userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = nocturne.NewUserProfile(userID)
	}
	fn(p)
	if err := r.Put(p); err != nil {
		return nil, err
	}
	return p, nil
}
