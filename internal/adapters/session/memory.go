// Package session keeps the previous question of each conversation.
package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxSessions is the bound used by the config layer.
const DefaultMaxSessions = 10000

// Options bounds the store.
type Options struct {
	// MaxSessions evicts the least recently used session when exceeded.
	// Zero means unbounded.
	MaxSessions int

	// TTL expires sessions whose query has not been written for this long.
	// Zero disables expiry.
	TTL time.Duration
}

// MemoryStore implements ports.SessionStore on an expirable LRU cache.
// The cache locks each call on its own; mu additionally serializes the
// Get-then-Add of Exchange so concurrent exchanges on one session never
// observe the same previous query.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, string]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts Options) *MemoryStore {
	size := opts.MaxSessions
	if size < 0 {
		size = 0
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryStore{cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get returns the stored query for sessionID and marks it recently used.
func (s *MemoryStore) Get(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(sessionID)
}

// Put overwrites the stored query for sessionID.
func (s *MemoryStore) Put(sessionID, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(sessionID, query)
}

// IsFirstTurn reports whether nothing live is stored for sessionID.
func (s *MemoryStore) IsFirstTurn(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache.Peek(sessionID)
	return !ok
}

// Exchange stores query and returns the value it replaced.
func (s *MemoryStore) Exchange(sessionID, query string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, found := s.cache.Get(sessionID)
	s.cache.Add(sessionID, query)
	return previous, found
}

// Len returns the number of live sessions. Expired entries the cache has
// not reaped yet are not counted.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range s.cache.Keys() {
		if _, ok := s.cache.Peek(id); ok {
			n++
		}
	}
	return n
}
