// Package config loads and caches the policy preset file and the MCP
// registry file. It is the only package that reads configuration from disk;
// everything else consumes parsed snapshots.
package config

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultTTL is how long a cached file stays fresh without a re-stat match.
const DefaultTTL = 30 * time.Second

// ParseFunc turns raw file bytes into a config value. It is called with nil
// when the file is missing or unreadable and must return an empty-but-valid
// structure in that case.
type ParseFunc func(data []byte) (any, error)

type cacheEntry struct {
	data     any
	mtime    time.Time
	loadedAt time.Time
}

// Store is a TTL + mtime invalidated file cache. Readers take a snapshot
// reference under a read lock; a stale reader re-reads the file outside any
// lock and swaps the entry under the write lock, so readers never wait on
// another reader's disk read.
type Store struct {
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// NewStore creates a Store with the given TTL. A zero ttl uses DefaultTTL.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]*cacheEntry),
	}
}

// Load returns the parsed contents of path. The cached value is reused while
// it is younger than the TTL and the file's mtime is unchanged. A missing or
// unparseable file degrades to parse(nil) — an empty-but-valid value — and
// is logged, never surfaced as a pipeline error.
func (s *Store) Load(path string, parse ParseFunc) (any, error) {
	var mtime time.Time
	fi, statErr := os.Stat(path)
	if statErr == nil {
		mtime = fi.ModTime()
	}

	s.mu.RLock()
	entry := s.entries[path]
	s.mu.RUnlock()

	if entry != nil && time.Since(entry.loadedAt) < s.ttl && entry.mtime.Equal(mtime) {
		return entry.data, nil
	}

	data, readErr := os.ReadFile(path)
	if statErr != nil || readErr != nil {
		err := readErr
		if err == nil {
			err = statErr
		}
		s.logger.Warn("config file unreadable, using empty config",
			zap.String("path", path),
			zap.Error(err),
		)
		empty, _ := parse(nil)
		s.store(path, empty, mtime)
		return empty, err
	}

	parsed, err := parse(data)
	if err != nil {
		s.logger.Warn("config file unparseable, using empty config",
			zap.String("path", path),
			zap.Error(err),
		)
		empty, _ := parse(nil)
		s.store(path, empty, mtime)
		return empty, err
	}

	s.store(path, parsed, mtime)
	return parsed, nil
}

func (s *Store) store(path string, data any, mtime time.Time) {
	s.mu.Lock()
	s.entries[path] = &cacheEntry{data: data, mtime: mtime, loadedAt: time.Now()}
	s.mu.Unlock()
}

// Invalidate drops the cache entry for path so the next Load re-reads it.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	delete(s.entries, path)
	s.mu.Unlock()
}

// Watch invalidates cache entries when the backing files change on disk,
// so edits take effect before the TTL window expires. Blocks until ctx is
// cancelled; run it in its own goroutine.
func (s *Store) Watch(ctx context.Context, paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		watched[p] = true
		if err := watcher.Add(p); err != nil {
			// The file may not exist yet; Load degrades gracefully either way.
			s.logger.Warn("config watch unavailable", zap.String("path", p), zap.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if watched[ev.Name] && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.Invalidate(ev.Name)
				s.logger.Debug("config cache invalidated", zap.String("path", ev.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
