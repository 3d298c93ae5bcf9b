package jobs

import (
	"context"
	"sort"
	"sync"
)

// Store persists jobs by file name so an interrupted run can resume.
type Store interface {
	// Get returns the job for name, or nil when none exists.
	Get(ctx context.Context, name string) (*Job, error)
	Put(ctx context.Context, job *Job) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]*Job, error)
}

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (m *MemoryStore) Get(_ context.Context, name string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[name].Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.Name] = job.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, name)
	return nil
}

// List returns all jobs ordered by name.
func (m *MemoryStore) List(_ context.Context) ([]*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ret := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		ret = append(ret, job.Clone())
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}
