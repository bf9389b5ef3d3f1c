package models

import (
	"bytes"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentSnapshot is everything printed on an issued document.
type DocumentSnapshot struct {
	Kind       DocumentKind       `json:"kind"`
	Language   Language           `json:"language"`
	Student    StudentIdentity    `json:"student"`
	School     SchoolIdentity     `json:"school"`
	Periods    []AcademicPeriod   `json:"periods"`
	Statistics *OverallStatistics `json:"statistics,omitempty"`
}

// SnapshotPayload holds the frozen JSON encoding of a DocumentSnapshot.
// The bytes written at issuance are the bytes returned on every lookup.
type SnapshotPayload []byte

// FreezeSnapshot encodes a snapshot into its immutable payload.
func FreezeSnapshot(s DocumentSnapshot) (SnapshotPayload, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("freeze snapshot: %w", err)
	}
	return SnapshotPayload(data), nil
}

// Decode returns a fresh DocumentSnapshot decoded from the payload.
func (p SnapshotPayload) Decode() (DocumentSnapshot, error) {
	var s DocumentSnapshot
	if len(p) == 0 {
		return s, fmt.Errorf("empty snapshot payload")
	}
	if err := json.Unmarshal(p, &s); err != nil {
		return s, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Digest returns the hex sha256 of the payload.
func (p SnapshotPayload) Digest() string {
	sum := sha256.Sum256(p)
	return hex.EncodeToString(sum[:])
}

// Clone copies the payload so callers never share its backing array.
func (p SnapshotPayload) Clone() SnapshotPayload {
	if p == nil {
		return nil
	}
	return bytes.Clone(p)
}

// Value stores the payload as text so the column keeps the exact bytes.
func (p SnapshotPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("empty snapshot payload")
	}
	return string(p), nil
}

// Scan loads the payload from a JSON column.
func (p *SnapshotPayload) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = nil
	case []byte:
		*p = bytes.Clone(v)
	case string:
		*p = SnapshotPayload(v)
	default:
		return fmt.Errorf("unsupported type %T for SnapshotPayload", value)
	}
	return nil
}

// VerificationRecord binds a code pair to a frozen snapshot. Only the counters
// change after creation.
type VerificationRecord struct {
	ID                 string          `db:"id" json:"id"`
	Code               string          `db:"code" json:"code"`
	ShortCode          string          `db:"short_code" json:"shortCode"`
	Kind               DocumentKind    `db:"kind" json:"kind"`
	StudentID          string          `db:"student_id" json:"studentId"`
	SchoolID           string          `db:"school_id" json:"schoolId"`
	IssuedAt           time.Time       `db:"issued_at" json:"issuedAt"`
	ApprovedAt         *time.Time      `db:"approved_at" json:"approvedAt,omitempty"`
	ExpiresAt          *time.Time      `db:"expires_at" json:"expiresAt,omitempty"`
	VerificationCount  int64           `db:"verification_count" json:"verificationCount"`
	ExpiredLookupCount int64           `db:"expired_lookup_count" json:"expiredLookupCount"`
	Digest             string          `db:"digest" json:"digest"`
	Snapshot           SnapshotPayload `db:"snapshot" json:"-"`
}

// Expired reports whether the record is past its expiry at now.
func (r *VerificationRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Clone returns a deep copy of the record.
func (r *VerificationRecord) Clone() *VerificationRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Snapshot = r.Snapshot.Clone()
	if r.ApprovedAt != nil {
		t := *r.ApprovedAt
		c.ApprovedAt = &t
	}
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}
