package forecast

import (
	"sync"
	"time"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

// defaultCacheTTL bounds how long a daily prediction stays valid. Weather
// forecasts refresh hourly upstream, so anything older is stale.
const defaultCacheTTL = time.Hour

type cacheEntry struct {
	result   models.PredictionResult
	storedAt time.Time
}

// predictionCache memoizes daily predictions by date string. It is safe for
// concurrent use.
type predictionCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newPredictionCache(ttl time.Duration) *predictionCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &predictionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *predictionCache) get(date string, now time.Time) (models.PredictionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[date]
	if !ok || now.Sub(e.storedAt) > c.ttl {
		return models.PredictionResult{}, false
	}
	return e.result, true
}

func (c *predictionCache) put(date string, r models.PredictionResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[date] = cacheEntry{result: r, storedAt: now}
}

func (c *predictionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
