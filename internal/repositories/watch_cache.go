package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// WatchCacheRepository persists watched-segment snapshots as JSON boolean arrays.
type WatchCacheRepository struct {
	db *sql.DB
}

// NewWatchCacheRepository creates a new WatchCacheRepository with the given database connection
func NewWatchCacheRepository(db *sql.DB) *WatchCacheRepository {
	return &WatchCacheRepository{db: db}
}

// Load returns the snapshot stored under key. The boolean is false when nothing is stored.
//
// A stored value that isn't a JSON boolean array is reported as absent.
func (r *WatchCacheRepository) Load(ctx context.Context, key string) ([]bool, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM watch_cache WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var watched []bool
	if err := json.Unmarshal([]byte(raw), &watched); err != nil {
		return nil, false, nil
	}
	return watched, true, nil
}

// Save overwrites the snapshot stored under key.
func (r *WatchCacheRepository) Save(ctx context.Context, key string, watched []bool) error {
	if watched == nil {
		watched = []bool{}
	}
	value, err := json.Marshal(watched)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO watch_cache (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot stored under key. Missing keys are not an error.
func (r *WatchCacheRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM watch_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// MemoryCache keeps snapshots in process memory.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string][]bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string][]bool)}
}

func (m *MemoryCache) Load(_ context.Context, key string) ([]bool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return slices.Clone(v), ok, nil
}

func (m *MemoryCache) Save(_ context.Context, key string, watched []bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = slices.Clone(watched)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
