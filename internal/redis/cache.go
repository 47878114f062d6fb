package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	UserCacheTTL    = 15 * time.Second // balance changes on every completed trip
	StationCacheTTL = 5 * time.Minute  // reference data, rarely edited
	DeviceCacheTTL  = 5 * time.Minute  // reader placement changes rarely
)

// Key prefixes
const (
	userCachePrefix   = "cache:user:"
	deviceCachePrefix = "cache:device:"
	stationListKey    = "cache:stations"
)

// CachedUser represents a cached rider summary.
type CachedUser struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	FingerprintID int64   `json:"fingerprint_id"`
	Balance       float64 `json:"balance"`
}

// CachedStation represents a cached station.
type CachedStation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// GetUser retrieves a rider summary from cache.
func (s *CacheStore) GetUser(ctx context.Context, fingerprintID int64) (*CachedUser, error) {
	key := userCacheKey(fingerprintID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var user CachedUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUser stores a rider summary in cache.
func (s *CacheStore) SetUser(ctx context.Context, user *CachedUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userCacheKey(user.FingerprintID), data, UserCacheTTL).Err()
}

// InvalidateUser removes a rider summary from cache. Called after any
// balance mutation so dashboard polls never show a stale balance for the
// full TTL.
func (s *CacheStore) InvalidateUser(ctx context.Context, fingerprintID int64) error {
	return s.client.Del(ctx, userCacheKey(fingerprintID)).Err()
}

// GetStations retrieves the station list from cache.
func (s *CacheStore) GetStations(ctx context.Context) ([]CachedStation, error) {
	data, err := s.client.Get(ctx, stationListKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var stations []CachedStation
	if err := json.Unmarshal(data, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// SetStations stores the station list in cache.
func (s *CacheStore) SetStations(ctx context.Context, stations []CachedStation) error {
	data, err := json.Marshal(stations)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stationListKey, data, StationCacheTTL).Err()
}

// InvalidateStations removes the station list from cache.
func (s *CacheStore) InvalidateStations(ctx context.Context) error {
	return s.client.Del(ctx, stationListKey).Err()
}

// GetDeviceStation retrieves a device's station binding from cache.
// Returns ok=false on a miss.
func (s *CacheStore) GetDeviceStation(ctx context.Context, deviceID string) (string, bool, error) {
	station, err := s.client.Get(ctx, deviceCachePrefix+deviceID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return station, true, nil
}

// SetDeviceStation stores a device's station binding in cache.
func (s *CacheStore) SetDeviceStation(ctx context.Context, deviceID, station string) error {
	return s.client.Set(ctx, deviceCachePrefix+deviceID, station, DeviceCacheTTL).Err()
}

// InvalidateDeviceStation removes a device's station binding from cache.
func (s *CacheStore) InvalidateDeviceStation(ctx context.Context, deviceID string) error {
	return s.client.Del(ctx, deviceCachePrefix+deviceID).Err()
}

func userCacheKey(fingerprintID int64) string {
	return userCachePrefix + strconv.FormatInt(fingerprintID, 10)
}
