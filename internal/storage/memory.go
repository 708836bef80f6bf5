package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a process-local Store used by tests and the memory backend.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]string
	dirs  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string]string),
		dirs:  make(map[string]struct{}),
	}
}

func (s *MemoryStore) Read(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, ok := cleanPath(p)
	if !ok {
		return "", fmt.Errorf("invalid record path %q", p)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files[c], nil
}

func (s *MemoryStore) Write(ctx context.Context, p, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, ok := cleanPath(p)
	if !ok {
		return fmt.Errorf("invalid record path %q", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[c] = content
	return nil
}

func (s *MemoryStore) EnsureDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, ok := cleanPath(p)
	if !ok {
		return fmt.Errorf("invalid record path %q", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[c] = struct{}{}
	return nil
}

// Paths returns every written path in lexical order.
func (s *MemoryStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
