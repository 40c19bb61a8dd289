// Package impression caches generated reputation summaries with a TTL.
package impression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/serendip/internal/db"
	"github.com/kailas-cloud/serendip/internal/domain"
	domimp "github.com/kailas-cloud/serendip/internal/domain/impression"
)

// store is the consumer interface for the impression cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache is a keyed impression cache backed by Valkey strings.
type Cache struct {
	store store
	ttl   time.Duration
}

// NewCache creates an impression cache. Entries expire after ttl.
func NewCache(s store, ttl time.Duration) *Cache {
	return &Cache{store: s, ttl: ttl}
}

// Get returns the cached impression. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, personID string) (imp domimp.Impression, ok bool, err error) {
	data, err := c.store.Get(ctx, cacheKey(personID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domimp.Impression{}, false, nil
		}
		return domimp.Impression{}, false, fmt.Errorf("get impression %s: %w", personID, err)
	}
	if err := json.Unmarshal(data, &imp); err != nil {
		return domimp.Impression{}, false, fmt.Errorf("decode impression %s: %w", personID, err)
	}
	return imp, true, nil
}

// Set stores the impression under its person id.
func (c *Cache) Set(ctx context.Context, imp domimp.Impression) error {
	data, err := json.Marshal(imp)
	if err != nil {
		return fmt.Errorf("encode impression: %w", err)
	}
	if err := c.store.SetWithTTL(ctx, cacheKey(imp.PersonID), data, c.ttl); err != nil {
		return fmt.Errorf("set impression %s: %w", imp.PersonID, err)
	}
	return nil
}

// Invalidate drops the cached impression for personID.
func (c *Cache) Invalidate(ctx context.Context, personID string) error {
	if err := c.store.Del(ctx, cacheKey(personID)); err != nil {
		return fmt.Errorf("invalidate impression %s: %w", personID, err)
	}
	return nil
}

// Valkey key pattern: serendip:impression:{personID}

func cacheKey(personID string) string {
	return domain.KeyPrefix + "impression:" + personID
}
