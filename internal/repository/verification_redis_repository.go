package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
)

const (
	redisRecordPrefix = "verification:record:"
	redisCodePrefix   = "verification:code:"
	redisShortPrefix  = "verification:short:"
)

// VerificationRedisRepository stores records as Redis hashes with code and short code index keys.
// The record hash is written in full before either index key is claimed with SETNX.
type VerificationRedisRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewVerificationRedisRepository constructs a Redis backed store.
func NewVerificationRedisRepository(client *redis.Client, logger *zap.Logger) *VerificationRedisRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationRedisRepository{client: client, logger: logger}
}

// Create writes the record hash, then claims the code and short code keys.
func (r *VerificationRedisRepository) Create(ctx context.Context, record *models.VerificationRecord) error {
	if r.client == nil {
		return fmt.Errorf("redis verification store not configured")
	}
	recordKey := redisRecordPrefix + record.ID
	if err := r.client.HSet(ctx, recordKey, encodeRecordHash(record)).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", recordKey, err)
	}

	claimed, err := r.client.SetNX(ctx, redisCodePrefix+record.Code, record.ID, 0).Result()
	if err != nil {
		r.discard(ctx, recordKey)
		return fmt.Errorf("redis claim code: %w", err)
	}
	if !claimed {
		r.discard(ctx, recordKey)
		return ErrCodeConflict
	}

	claimed, err = r.client.SetNX(ctx, redisShortPrefix+record.ShortCode, record.ID, 0).Result()
	if err != nil || !claimed {
		r.discard(ctx, recordKey, redisCodePrefix+record.Code)
		if err != nil {
			return fmt.Errorf("redis claim short code: %w", err)
		}
		return ErrCodeConflict
	}
	return nil
}

// FindByCode resolves the code index and loads the record hash.
func (r *VerificationRedisRepository) FindByCode(ctx context.Context, code string) (*models.VerificationRecord, error) {
	return r.findByIndex(ctx, redisCodePrefix+code)
}

// FindByShortCode resolves the short code index and loads the record hash.
func (r *VerificationRedisRepository) FindByShortCode(ctx context.Context, shortCode string) (*models.VerificationRecord, error) {
	return r.findByIndex(ctx, redisShortPrefix+shortCode)
}

// IncrementVerification runs HINCRBY on the success counter.
func (r *VerificationRedisRepository) IncrementVerification(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "verification_count")
}

// IncrementExpiredLookup runs HINCRBY on the expired lookup counter.
func (r *VerificationRedisRepository) IncrementExpiredLookup(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "expired_lookup_count")
}

func (r *VerificationRedisRepository) findByIndex(ctx context.Context, indexKey string) (*models.VerificationRecord, error) {
	if r.client == nil {
		return nil, ErrVerificationNotFound
	}
	id, err := r.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", indexKey, err)
	}
	fields, err := r.client.HGetAll(ctx, redisRecordPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrVerificationNotFound
	}
	return decodeRecordHash(id, fields)
}

func (r *VerificationRedisRepository) increment(ctx context.Context, id, field string) (int64, error) {
	if r.client == nil {
		return 0, ErrVerificationNotFound
	}
	key := redisRecordPrefix + id
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists %s: %w", key, err)
	}
	if exists == 0 {
		return 0, ErrVerificationNotFound
	}
	count, err := r.client.HIncrBy(ctx, key, field, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hincrby %s %s: %w", key, field, err)
	}
	return count, nil
}

func (r *VerificationRedisRepository) discard(ctx context.Context, keys ...string) {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("failed to discard unclaimed verification record", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Close releases the underlying Redis connection if present.
func (r *VerificationRedisRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func encodeRecordHash(record *models.VerificationRecord) map[string]interface{} {
	fields := map[string]interface{}{
		"code":                 record.Code,
		"short_code":           record.ShortCode,
		"kind":                 string(record.Kind),
		"student_id":           record.StudentID,
		"school_id":            record.SchoolID,
		"issued_at":            record.IssuedAt.UTC().Format(time.RFC3339Nano),
		"verification_count":   0,
		"expired_lookup_count": 0,
		"digest":               record.Digest,
		"snapshot":             string(record.Snapshot),
	}
	if record.ApprovedAt != nil {
		fields["approved_at"] = record.ApprovedAt.UTC().Format(time.RFC3339Nano)
	}
	if record.ExpiresAt != nil {
		fields["expires_at"] = record.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	return fields
}

func decodeRecordHash(id string, fields map[string]string) (*models.VerificationRecord, error) {
	record := &models.VerificationRecord{
		ID:        id,
		Code:      fields["code"],
		ShortCode: fields["short_code"],
		Kind:      models.DocumentKind(fields["kind"]),
		StudentID: fields["student_id"],
		SchoolID:  fields["school_id"],
		Digest:    fields["digest"],
		Snapshot:  models.SnapshotPayload(fields["snapshot"]),
	}
	var err error
	if record.IssuedAt, err = time.Parse(time.RFC3339Nano, fields["issued_at"]); err != nil {
		return nil, fmt.Errorf("decode issued_at for %s: %w", id, err)
	}
	if record.ApprovedAt, err = parseOptionalTime(fields["approved_at"]); err != nil {
		return nil, fmt.Errorf("decode approved_at for %s: %w", id, err)
	}
	if record.ExpiresAt, err = parseOptionalTime(fields["expires_at"]); err != nil {
		return nil, fmt.Errorf("decode expires_at for %s: %w", id, err)
	}
	if record.VerificationCount, err = parseCounter(fields["verification_count"]); err != nil {
		return nil, fmt.Errorf("decode verification_count for %s: %w", id, err)
	}
	if record.ExpiredLookupCount, err = parseCounter(fields["expired_lookup_count"]); err != nil {
		return nil, fmt.Errorf("decode expired_lookup_count for %s: %w", id, err)
	}
	return record, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseCounter(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
