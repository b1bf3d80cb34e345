package analysisjob

import (
	"context"
	"sync"
)

type Repository interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
}

// MemoryRepo keeps jobs in memory, they are lost on restart.
type MemoryRepo struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryRepository() *MemoryRepo {
	return &MemoryRepo{
		jobs: make(map[string]*Job),
	}
}

func (r *MemoryRepo) Create(_ context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.ID] = job.clone()

	return nil
}

func (r *MemoryRepo) Update(_ context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return ErrNotFound
	}

	r.jobs[job.ID] = job.clone()

	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	return job.clone(), nil
}
