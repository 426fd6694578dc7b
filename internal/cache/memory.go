// Package cache provides the per-topic in-memory response cache tier.
package cache

import (
	"sort"
	"sync"
	"time"

	"trendpulse/internal/models"
)

type entry struct {
	storedAt time.Time
	payload  models.Response
}

// TopicCache maps topics to the last computed response. Entries expire by
// TTL but stay in the map until swept or overwritten; Get never evicts.
type TopicCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	now func() time.Time
}

// New creates an empty topic cache.
func New() *TopicCache {
	return &TopicCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached response for topic if it is younger than ttl.
func (c *TopicCache) Get(topic string, ttl time.Duration) (models.Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[topic]
	if !ok || c.now().Sub(e.storedAt) >= ttl {
		return models.Response{}, false
	}
	return e.payload, true
}

// Put stores resp for topic, unconditionally replacing any previous entry.
func (c *TopicCache) Put(topic string, resp models.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[topic] = entry{storedAt: c.now(), payload: resp}
}

// Sweep removes all entries older than ttl and returns how many were removed.
func (c *TopicCache) Sweep(ttl time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for topic, e := range c.entries {
		if now.Sub(e.storedAt) >= ttl {
			delete(c.entries, topic)
			removed++
		}
	}
	return removed
}

// Stats returns total and still-fresh entry counts.
func (c *TopicCache) Stats(ttl time.Duration) (total, fresh int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	for _, e := range c.entries {
		total++
		if now.Sub(e.storedAt) < ttl {
			fresh++
		}
	}
	return total, fresh
}

// Keys returns the cached topics in stable order.
func (c *TopicCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for topic := range c.entries {
		keys = append(keys, topic)
	}
	sort.Strings(keys)
	return keys
}
