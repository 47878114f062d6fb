package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireScanLock attempts to acquire a lock for verification events of the
// given fingerprint. Returns true if the lock was acquired, false if a
// concurrent scan for the same rider is already in flight.
func (s *LockStore) AcquireScanLock(ctx context.Context, fingerprintID int64, ttl time.Duration) (bool, error) {
	key := "lock:scan:" + strconv.FormatInt(fingerprintID, 10)
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseScanLock releases the verification lock for a fingerprint.
func (s *LockStore) ReleaseScanLock(ctx context.Context, fingerprintID int64) error {
	key := "lock:scan:" + strconv.FormatInt(fingerprintID, 10)
	return s.client.Del(ctx, key).Err()
}

// AcquireSweepLock attempts to acquire the trip-expiry sweep lock so only
// one instance sweeps at a time.
func (s *LockStore) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "lock:trip-sweep", "1", ttl).Result()
}

// ReleaseSweepLock releases the trip-expiry sweep lock.
func (s *LockStore) ReleaseSweepLock(ctx context.Context) error {
	return s.client.Del(ctx, "lock:trip-sweep").Err()
}
