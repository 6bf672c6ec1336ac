// Package cache remembers article digests between scheduled runs, so a
// story that lingers in a feed across days is not summarized twice.
package cache

import (
	"sync"
	"time"
)

const cleanupInterval = 10 * time.Minute

type entry struct {
	digest    string
	expiresAt time.Time
}

// Stats reports cache effectiveness for end-of-run logging.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Memory is an in-process digest cache keyed by article link. Entries
// expire after a fixed TTL.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	hits    int64
	misses  int64
}

// NewMemory creates a digest cache whose entries live for ttl
func NewMemory(ttl time.Duration) *Memory {
	c := &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
	}

	go c.cleanup()

	return c
}

// Get returns the cached digest for a link. Expired entries count as
// misses and are removed.
func (c *Memory) Get(link string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[link]
	if !ok {
		c.misses++
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, link)
		c.misses++
		return "", false
	}

	c.hits++
	return e.digest, true
}

// Set stores the digest for a link, restarting its TTL
func (c *Memory) Set(link, digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[link] = entry{
		digest:    digest,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// cleanup drops expired entries periodically so links that left the
// feeds do not accumulate in long-running serve processes
func (c *Memory) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for link, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, link)
			}
		}
		c.mu.Unlock()
	}
}
