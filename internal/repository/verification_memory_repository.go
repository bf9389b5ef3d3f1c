package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/noah-isme/sma-records-api/internal/models"
)

type memoryEntry struct {
	record   *models.VerificationRecord
	verified atomic.Int64
	expired  atomic.Int64
}

// VerificationMemoryRepository keeps verification records in process memory.
// Counters are atomics so concurrent lookups of one code never take the map lock for writing.
type VerificationMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*memoryEntry
	byCode  map[string]*memoryEntry
	byShort map[string]*memoryEntry
}

// NewVerificationMemoryRepository constructs an empty in-memory store.
func NewVerificationMemoryRepository() *VerificationMemoryRepository {
	return &VerificationMemoryRepository{
		byID:    make(map[string]*memoryEntry),
		byCode:  make(map[string]*memoryEntry),
		byShort: make(map[string]*memoryEntry),
	}
}

// Create stores a deep copy of record. Duplicate codes return ErrCodeConflict.
func (r *VerificationMemoryRepository) Create(ctx context.Context, record *models.VerificationRecord) error {
	entry := &memoryEntry{record: record.Clone()}
	entry.record.VerificationCount = 0
	entry.record.ExpiredLookupCount = 0

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[record.Code]; ok {
		return ErrCodeConflict
	}
	if _, ok := r.byShort[record.ShortCode]; ok {
		return ErrCodeConflict
	}
	if _, ok := r.byID[record.ID]; ok {
		return ErrCodeConflict
	}
	r.byID[record.ID] = entry
	r.byCode[record.Code] = entry
	r.byShort[record.ShortCode] = entry
	return nil
}

// FindByCode returns a copy of the record with the given long code.
func (r *VerificationMemoryRepository) FindByCode(ctx context.Context, code string) (*models.VerificationRecord, error) {
	r.mu.RLock()
	entry, ok := r.byCode[code]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrVerificationNotFound
	}
	return entry.snapshot(), nil
}

// FindByShortCode returns a copy of the record with the given short code.
func (r *VerificationMemoryRepository) FindByShortCode(ctx context.Context, shortCode string) (*models.VerificationRecord, error) {
	r.mu.RLock()
	entry, ok := r.byShort[shortCode]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrVerificationNotFound
	}
	return entry.snapshot(), nil
}

// IncrementVerification atomically bumps the success counter.
func (r *VerificationMemoryRepository) IncrementVerification(ctx context.Context, id string) (int64, error) {
	entry, err := r.entry(id)
	if err != nil {
		return 0, err
	}
	return entry.verified.Add(1), nil
}

// IncrementExpiredLookup atomically bumps the expired lookup counter.
func (r *VerificationMemoryRepository) IncrementExpiredLookup(ctx context.Context, id string) (int64, error) {
	entry, err := r.entry(id)
	if err != nil {
		return 0, err
	}
	return entry.expired.Add(1), nil
}

// Len reports the number of stored records.
func (r *VerificationMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *VerificationMemoryRepository) entry(id string) (*memoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[id]
	if !ok {
		return nil, ErrVerificationNotFound
	}
	return entry, nil
}

func (e *memoryEntry) snapshot() *models.VerificationRecord {
	out := e.record.Clone()
	out.VerificationCount = e.verified.Load()
	out.ExpiredLookupCount = e.expired.Load()
	return out
}
