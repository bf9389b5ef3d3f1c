package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// ErrBatchJobNotFound is returned when a batch id is unknown.
var ErrBatchJobNotFound = errors.New("batch job not found")

// BatchJobMemoryRepository keeps batch progress in process memory. Batches are
// transient: the documents they issue are durable through the verification store.
type BatchJobMemoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*models.BatchJob
}

// NewBatchJobMemoryRepository constructs an empty repository.
func NewBatchJobMemoryRepository() *BatchJobMemoryRepository {
	return &BatchJobMemoryRepository{jobs: make(map[string]*models.BatchJob)}
}

// Create stores a new batch job.
func (r *BatchJobMemoryRepository) Create(ctx context.Context, job *models.BatchJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return ErrCodeConflict
	}
	r.jobs[job.ID] = cloneBatchJob(job)
	return nil
}

// GetByID returns a copy of the batch job.
func (r *BatchJobMemoryRepository) GetByID(ctx context.Context, id string) (*models.BatchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrBatchJobNotFound
	}
	return cloneBatchJob(job), nil
}

// Update applies mutate to the stored job under the write lock.
func (r *BatchJobMemoryRepository) Update(ctx context.Context, id string, mutate func(*models.BatchJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrBatchJobNotFound
	}
	mutate(job)
	return nil
}

func cloneBatchJob(job *models.BatchJob) *models.BatchJob {
	c := *job
	c.Issued = append([]models.BatchIssued(nil), job.Issued...)
	c.Failures = append([]models.BatchFailure(nil), job.Failures...)
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
