package cover

import (
	"container/list"
	"sync"
	"sync/atomic"

	"coverart/internal/metrics"
)

// Stats is a point-in-time snapshot of the cover cache.
type Stats struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	Evictions      uint64 `json:"evictions"`
	Entries        int    `json:"entries"`
	ByteTotal      int64  `json:"byteTotal"`
	MaxBytes       int64  `json:"maxBytes"`
	DefaultEntries int    `json:"defaultEntries"`
}

type storeEntry struct {
	key Key
	img *EncodedImage
}

// Store is a concurrent cache of encoded covers bounded by the cumulative
// payload size. When an insert would exceed the bound, entries are evicted
// in insertion order (oldest first) until the new one fits.
//
// Lookups take a shared lock; inserts, evictions and flushes take the
// exclusive lock, so readers never see a half-applied change.
type Store struct {
	mu       sync.RWMutex
	entries  map[Key]*list.Element
	order    *list.List // front is the oldest entry
	size     int64
	maxBytes int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewStore creates a Store holding at most maxBytes of payload.
func NewStore(maxBytes int64) *Store {
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &Store{
		entries:  make(map[Key]*list.Element),
		order:    list.New(),
		maxBytes: maxBytes,
	}
}

// Lookup returns the cached image for key and counts a hit or a miss.
func (s *Store) Lookup(key Key) (*EncodedImage, bool) {
	s.mu.RLock()
	el, ok := s.entries[key]
	var img *EncodedImage
	if ok {
		img = el.Value.(*storeEntry).img
	}
	s.mu.RUnlock()

	if ok {
		s.hits.Add(1)
		metrics.CoverCacheHits.Inc()
	} else {
		s.misses.Add(1)
		metrics.CoverCacheMisses.Inc()
	}
	return img, ok
}

// Insert stores img under key and returns the cached value. If key is already
// present the existing image wins and is returned, so concurrent resolvers of
// the same key converge on one pointer. An image larger than the whole budget
// is returned without being stored.
func (s *Store) Insert(key Key, img *EncodedImage) *EncodedImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		return el.Value.(*storeEntry).img
	}

	need := img.Size()
	if need > s.maxBytes {
		log.Debug("Not caching %s: %d bytes exceeds cache size %d", key, need, s.maxBytes)
		return img
	}

	for s.size+need > s.maxBytes && s.order.Len() > 0 {
		s.evictOldest()
	}

	s.entries[key] = s.order.PushBack(&storeEntry{key: key, img: img})
	s.size += need
	return img
}

// evictOldest must be called with the write lock held.
func (s *Store) evictOldest() {
	el := s.order.Front()
	e := el.Value.(*storeEntry)
	s.order.Remove(el)
	delete(s.entries, e.key)
	s.size -= e.img.Size()
	s.evictions.Add(1)
	metrics.CoverCacheEvictions.Inc()
	log.Debug("Evicted %s (%d bytes)", e.key, e.img.Size())
}

// Flush drops every entry and resets the byte total and all counters.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[Key]*list.Element)
	s.order.Init()
	s.size = 0
	s.hits.Store(0)
	s.misses.Store(0)
	s.evictions.Store(0)
}

// Stats returns a snapshot of the cache counters and occupancy.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
		Entries:   len(s.entries),
		ByteTotal: s.size,
		MaxBytes:  s.maxBytes,
	}
}
