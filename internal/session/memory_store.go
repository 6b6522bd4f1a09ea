package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// MemoryStore implements Store in process memory with bigcache. Entries are
// evicted once ttl has passed since they were written.
type MemoryStore struct {
	cache *bigcache.BigCache
}

// NewMemoryStore creates a MemoryStore whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10000
	cfg.MaxEntrySize = 256
	cfg.HardMaxCacheSize = 64 // MB
	cfg.Verbose = false

	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Get retrieves a session record.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	buf, err := s.cache.Get(id)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &rec, nil
}

// Save stores the record.
func (s *MemoryStore) Save(_ context.Context, id string, rec Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.cache.Set(id, buf); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Delete removes the record if present.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if err := s.cache.Delete(id); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Close stops the cache's cleanup goroutine.
func (s *MemoryStore) Close() error {
	return s.cache.Close()
}
