package project

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: map[string]*Project{}}
}

func (s *MemoryStore) Create(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		summary := clone(p)
		summary.Files = nil
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) SaveFiles(_ context.Context, id string, files map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	p.Files = cloneFiles(files)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

// clone copies a project so callers never share mutable state with the store
func clone(p *Project) *Project {
	cp := *p
	cp.Files = cloneFiles(p.Files)
	return &cp
}

func cloneFiles(files map[string]string) map[string]string {
	if files == nil {
		return nil
	}
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}
