package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/triage-ai/rampart/internal/config"
	"github.com/triage-ai/rampart/internal/detect"
	"go.uber.org/zap"
)

// ErrServerNotFound is returned when a server id is absent from the registry.
var ErrServerNotFound = errors.New("server not found in registry")

// Store is the persistent MCP server registry. Reads go through the shared
// config cache so Decide-path lookups see a stable, already-committed
// snapshot; writes are read-modify-write under a store mutex followed by an
// atomic temp-file + rename, so a partially-written file is never visible.
type Store struct {
	path   string
	cfg    *config.Store
	logger *zap.Logger

	writeMu sync.Mutex
}

// NewStore creates a Store persisting to path and reading through cfg.
func NewStore(path string, cfg *config.Store, logger *zap.Logger) *Store {
	return &Store{path: path, cfg: cfg, logger: logger}
}

// ParseRegistry is the config.ParseFunc for the registry JSON file.
func ParseRegistry(data []byte) (any, error) {
	f := &File{Servers: map[string]*ServerEntry{}}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, f); err != nil {
		return &File{Servers: map[string]*ServerEntry{}}, err
	}
	if f.Servers == nil {
		f.Servers = map[string]*ServerEntry{}
	}
	return f, nil
}

// Snapshot returns the current registry contents. Never nil.
func (s *Store) Snapshot() *File {
	v, _ := s.cfg.Load(s.path, ParseRegistry)
	f, ok := v.(*File)
	if !ok || f == nil {
		return &File{Servers: map[string]*ServerEntry{}}
	}
	return f
}

// Get returns the entry for serverID or ErrServerNotFound.
func (s *Store) Get(serverID string) (*ServerEntry, error) {
	entry, ok := s.Snapshot().Servers[serverID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, serverID)
	}
	return entry, nil
}

// Upsert replaces the entry for entry.ServerID as a single atomic write.
func (s *Store) Upsert(entry *ServerEntry) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Re-read inside the write lock so concurrent upserts for different
	// servers never drop each other's entries.
	s.cfg.Invalidate(s.path)
	file := s.Snapshot()

	next := &File{Servers: make(map[string]*ServerEntry, len(file.Servers)+1)}
	for id, e := range file.Servers {
		next.Servers[id] = e
	}
	next.Servers[entry.ServerID] = entry

	if err := s.save(next); err != nil {
		return err
	}
	s.cfg.Invalidate(s.path)
	return nil
}

// save writes the registry file atomically: write a temp file in the same
// directory, then rename over the target.
func (s *Store) save(f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp registry file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry file: %w", err)
	}
	return nil
}

// ToolCategory implements the policy engine's catalog view.
func (s *Store) ToolCategory(serverID, toolName string) (detect.ToolCategory, bool) {
	entry, ok := s.Snapshot().Servers[serverID]
	if !ok || entry.ToolCategories == nil {
		return "", false
	}
	c, ok := entry.ToolCategories[toolName]
	return c, ok
}

// RequiresApproval reports whether toolName is on the server's HITL list.
func (s *Store) RequiresApproval(serverID, toolName string) bool {
	entry, ok := s.Snapshot().Servers[serverID]
	if !ok {
		return false
	}
	for _, t := range entry.HITLTools {
		if t == toolName {
			return true
		}
	}
	return false
}
