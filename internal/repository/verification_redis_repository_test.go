package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHashRoundTrip(t *testing.T) {
	record := sampleRecord(t)
	approved := time.Date(2024, 7, 1, 9, 5, 0, 0, time.UTC)
	record.ApprovedAt = &approved

	raw := encodeRecordHash(record)
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case int:
			fields[k] = "7"
		}
	}

	decoded, err := decodeRecordHash(record.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, record.Code, decoded.Code)
	assert.Equal(t, record.ShortCode, decoded.ShortCode)
	assert.True(t, record.IssuedAt.Equal(decoded.IssuedAt))
	require.NotNil(t, decoded.ApprovedAt)
	assert.True(t, approved.Equal(*decoded.ApprovedAt))
	assert.Nil(t, decoded.ExpiresAt)
	assert.Equal(t, int64(7), decoded.VerificationCount)
	assert.Equal(t, []byte(record.Snapshot), []byte(decoded.Snapshot))
	assert.Equal(t, record.Digest, decoded.Snapshot.Digest())
}

func TestDecodeRecordHashRejectsBadTimestamp(t *testing.T) {
	_, err := decodeRecordHash("rec-1", map[string]string{"issued_at": "yesterday"})
	assert.Error(t, err)
}

func TestVerificationRedisRepositoryWithoutClient(t *testing.T) {
	repo := NewVerificationRedisRepository(nil, nil)
	_, err := repo.FindByCode(context.Background(), "code")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
	_, err = repo.IncrementVerification(context.Background(), "rec-1")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
	assert.Error(t, repo.Create(context.Background(), sampleRecord(t)))
	assert.NoError(t, repo.Close())
}
