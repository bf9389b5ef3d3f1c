package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPayloadRoundTripIsDetached(t *testing.T) {
	snap := DocumentSnapshot{
		Kind:    DocumentBulletin,
		Student: StudentIdentity{ID: "stu-1", Matricule: "M-01", FirstName: "Awa", LastName: "Diallo"},
		Periods: []AcademicPeriod{{Term: "T1", TermAverage: 14.5, Subjects: []SubjectRecord{{Name: "Math", Coefficient: 4, Grade: 15, MaxScore: 20}}}},
	}
	payload, err := FreezeSnapshot(snap)
	require.NoError(t, err)

	snap.Periods[0].Subjects[0].Grade = 2
	decoded, err := payload.Decode()
	require.NoError(t, err)
	assert.Equal(t, 15.0, decoded.Periods[0].Subjects[0].Grade)

	decoded.Periods[0].TermAverage = 0
	again, err := payload.Decode()
	require.NoError(t, err)
	assert.Equal(t, 14.5, again.Periods[0].TermAverage)
	assert.Equal(t, payload.Digest(), payload.Clone().Digest())
}

func TestVerificationRecordExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	record := &VerificationRecord{}
	assert.False(t, record.Expired(now))
	record.ExpiresAt = &past
	assert.True(t, record.Expired(now))
}

func TestSnapshotPayloadScan(t *testing.T) {
	var p SnapshotPayload
	raw := []byte(`{"kind":"BULLETIN"}`)
	require.NoError(t, p.Scan(raw))
	raw[2] = 'X'
	assert.Equal(t, `{"kind":"BULLETIN"}`, string(p))
	require.Error(t, p.Scan(42))
}
