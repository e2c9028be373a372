package progress

import (
	"context"
	"sync"

	"social-insights-service/internal/entity"
)

// MemoryStore keeps snapshots in-process. Values are copied on both
// paths so callers never share the stored struct.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]entity.AnalysisJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]entity.AnalysisJob)}
}

func (s *MemoryStore) Set(_ context.Context, job *entity.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*entity.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (s *MemoryStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}
