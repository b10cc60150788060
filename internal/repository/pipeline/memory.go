package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
)

// Memory is an in-process pipeline repository used when no database is configured.
type Memory struct {
	mu        sync.RWMutex
	pipelines map[string]dompipe.Pipeline
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{pipelines: make(map[string]dompipe.Pipeline)}
}

// Put stores a pipeline and reports whether it was newly created.
func (m *Memory) Put(_ context.Context, p dompipe.Pipeline) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.pipelines[p.Name()]
	m.pipelines[p.Name()] = p
	return !exists, nil
}

// Get retrieves a pipeline by name.
func (m *Memory) Get(_ context.Context, name string) (dompipe.Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pipelines[name]
	if !ok {
		return dompipe.Pipeline{}, domain.ErrNotFound
	}
	return p, nil
}

// List returns all pipelines sorted by name.
func (m *Memory) List(_ context.Context) ([]dompipe.Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dompipe.Pipeline, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Delete removes a pipeline.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pipelines[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.pipelines, name)
	return nil
}
