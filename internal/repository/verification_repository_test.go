package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
)

func newVerificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleRecord(t *testing.T) *models.VerificationRecord {
	payload, err := models.FreezeSnapshot(models.DocumentSnapshot{
		Kind:    models.DocumentBulletin,
		Student: models.StudentIdentity{ID: "stu-1", FirstName: "Awa", LastName: "Diallo"},
	})
	require.NoError(t, err)
	return &models.VerificationRecord{
		ID:        "rec-1",
		Code:      "ABCDEF0123456789ABCDEF0123456789",
		ShortCode: "K7QD-3MXA",
		Kind:      models.DocumentBulletin,
		StudentID: "stu-1",
		SchoolID:  "sch-1",
		IssuedAt:  time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
		Digest:    payload.Digest(),
		Snapshot:  payload,
	}
}

var verificationRowColumns = []string{"id", "code", "short_code", "kind", "student_id", "school_id", "issued_at", "approved_at", "expires_at", "verification_count", "expired_lookup_count", "digest", "snapshot"}

func TestVerificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), sampleRecord(t)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryCreateConflict(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_records")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), sampleRecord(t))
	assert.ErrorIs(t, err, ErrCodeConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryFindByShortCode(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	record := sampleRecord(t)
	rows := sqlmock.NewRows(verificationRowColumns).
		AddRow(record.ID, record.Code, record.ShortCode, string(record.Kind), record.StudentID, record.SchoolID, record.IssuedAt, nil, nil, int64(4), int64(1), record.Digest, []byte(record.Snapshot))
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_records WHERE short_code = $1")).
		WithArgs("K7QD-3MXA").
		WillReturnRows(rows)

	found, err := repo.FindByShortCode(context.Background(), "K7QD-3MXA")
	require.NoError(t, err)
	assert.Equal(t, record.Code, found.Code)
	assert.Equal(t, int64(4), found.VerificationCount)
	assert.Equal(t, []byte(record.Snapshot), []byte(found.Snapshot))
	assert.Nil(t, found.ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryFindByCodeNotFound(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_records WHERE code = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(verificationRowColumns))

	_, err := repo.FindByCode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryIncrementVerification(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SET verification_count = verification_count + 1")).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows([]string{"verification_count"}).AddRow(int64(5)))

	count, err := repo.IncrementVerification(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryIncrementExpiredLookup(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SET expired_lookup_count = expired_lookup_count + 1")).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows([]string{"expired_lookup_count"}).AddRow(int64(1)))

	count, err := repo.IncrementExpiredLookup(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.NoError(t, mock.ExpectationsWereMet())
}
