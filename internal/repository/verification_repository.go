package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-records-api/internal/models"
)

var (
	// ErrVerificationNotFound is returned when no record matches a code.
	ErrVerificationNotFound = errors.New("verification record not found")
	// ErrCodeConflict is returned when a code or short code is already taken.
	ErrCodeConflict = errors.New("verification code already issued")
)

const uniqueViolation = "23505"

const verificationColumns = `id, code, short_code, kind, student_id, school_id, issued_at, approved_at, expires_at,
       verification_count, expired_lookup_count, digest, snapshot`

// VerificationRepository persists verification records in Postgres.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository constructs the repository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create inserts a new record. Unique violations on code or short_code map to ErrCodeConflict.
func (r *VerificationRepository) Create(ctx context.Context, record *models.VerificationRecord) error {
	const query = `INSERT INTO verification_records
	(id, code, short_code, kind, student_id, school_id, issued_at, approved_at, expires_at, verification_count, expired_lookup_count, digest, snapshot)
	VALUES (:id, :code, :short_code, :kind, :student_id, :school_id, :issued_at, :approved_at, :expires_at, 0, 0, :digest, :snapshot)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrCodeConflict
		}
		return fmt.Errorf("create verification record: %w", err)
	}
	return nil
}

// FindByCode loads a record by its long code.
func (r *VerificationRepository) FindByCode(ctx context.Context, code string) (*models.VerificationRecord, error) {
	return r.findOne(ctx, `SELECT `+verificationColumns+` FROM verification_records WHERE code = $1`, code)
}

// FindByShortCode loads a record by its short code.
func (r *VerificationRepository) FindByShortCode(ctx context.Context, shortCode string) (*models.VerificationRecord, error) {
	return r.findOne(ctx, `SELECT `+verificationColumns+` FROM verification_records WHERE short_code = $1`, shortCode)
}

func (r *VerificationRepository) findOne(ctx context.Context, query, arg string) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	if err := r.db.GetContext(ctx, &record, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	return &record, nil
}

// IncrementVerification bumps the success counter in one statement and returns the new value.
func (r *VerificationRepository) IncrementVerification(ctx context.Context, id string) (int64, error) {
	const query = `UPDATE verification_records SET verification_count = verification_count + 1 WHERE id = $1 RETURNING verification_count`
	return r.increment(ctx, query, id)
}

// IncrementExpiredLookup bumps the expired lookup counter and returns the new value.
func (r *VerificationRepository) IncrementExpiredLookup(ctx context.Context, id string) (int64, error) {
	const query = `UPDATE verification_records SET expired_lookup_count = expired_lookup_count + 1 WHERE id = $1 RETURNING expired_lookup_count`
	return r.increment(ctx, query, id)
}

func (r *VerificationRepository) increment(ctx context.Context, query, id string) (int64, error) {
	var count int64
	if err := r.db.QueryRowxContext(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrVerificationNotFound
		}
		return 0, fmt.Errorf("increment verification counter: %w", err)
	}
	return count, nil
}
