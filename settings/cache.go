package settings

import (
	"context"
	"encoding/json"
	"time"

	"babumoshai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const cacheKey = "site"

// Cache is a byte cache such as rdx.Cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedStore reads settings through a cache. Settings are read on every cart summary
// and checkout but change rarely. Cache failures fall back to the underlying store.
type CachedStore struct {
	next  Store
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedStore(next Store, cache Cache, ttl time.Duration, log *zap.Logger) *CachedStore {
	return &CachedStore{next: next, cache: cache, ttl: ttl, log: log}
}

func (s *CachedStore) GetOrCreate(ctx context.Context) (models.Settings, error) {
	data, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn("settings cache read", zap.Error(err))
	}
	if ok {
		var st models.Settings
		if err := json.Unmarshal(data, &st); err == nil {
			st.ID = models.SettingsID
			return st, nil
		}
	}

	st, err := s.next.GetOrCreate(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	s.fill(ctx, st)
	return st, nil
}

// Set writes through and refreshes the cached copy. If the refresh fails the entry is
// dropped so no stale pricing survives an update.
func (s *CachedStore) Set(ctx context.Context, fields bson.M) (models.Settings, error) {
	st, err := s.next.Set(ctx, fields)
	if err != nil {
		return models.Settings{}, err
	}
	if !s.fill(ctx, st) {
		if err := s.cache.Del(ctx, cacheKey); err != nil {
			s.log.Error("settings cache invalidate", zap.Error(err))
		}
	}
	return st, nil
}

func (s *CachedStore) fill(ctx context.Context, st models.Settings) bool {
	data, err := json.Marshal(st)
	if err == nil {
		err = s.cache.Set(ctx, cacheKey, data, s.ttl)
	}
	if err != nil {
		s.log.Warn("settings cache write", zap.Error(err))
		return false
	}
	return true
}
