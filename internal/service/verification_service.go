package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/locale"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

// shortCodeAlphabet is Crockford base32: no I, L, O or U.
const shortCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	longCodeBytes   = 16
	shortCodeLength = 8
)

type verificationStore interface {
	Create(ctx context.Context, record *models.VerificationRecord) error
	FindByCode(ctx context.Context, code string) (*models.VerificationRecord, error)
	FindByShortCode(ctx context.Context, shortCode string) (*models.VerificationRecord, error)
	IncrementVerification(ctx context.Context, id string) (int64, error)
	IncrementExpiredLookup(ctx context.Context, id string) (int64, error)
}

// CodeGenerator produces a long code and a short code candidate.
type CodeGenerator func() (code, shortCode string, err error)

// VerificationServiceConfig tunes code issuance.
type VerificationServiceConfig struct {
	// BaseURL is the public verify endpoint embedded in QR payloads.
	BaseURL      string
	TTL          time.Duration
	CodeAttempts int
}

// VerificationService issues verification records and answers lookups.
type VerificationService struct {
	store    verificationStore
	cfg      VerificationServiceConfig
	metrics  *MetricsService
	logger   *zap.Logger
	generate CodeGenerator
	now      func() time.Time
}

// NewVerificationService constructs the service.
func NewVerificationService(store verificationStore, cfg VerificationServiceConfig, metrics *MetricsService, logger *zap.Logger) *VerificationService {
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		store:    store,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		generate: RandomCodes,
		now:      time.Now,
	}
}

// WithCodeGenerator overrides code generation.
func (s *VerificationService) WithCodeGenerator(gen CodeGenerator) *VerificationService {
	if gen != nil {
		s.generate = gen
	}
	return s
}

// WithClock overrides the time source.
func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	if now != nil {
		s.now = now
	}
	return s
}

// Issue freezes snapshot and persists it under a fresh code pair. Collisions
// are retried up to CodeAttempts times before CODE_SPACE_EXHAUSTED.
func (s *VerificationService) Issue(ctx context.Context, snapshot models.DocumentSnapshot, approved bool) (*models.VerificationRecord, error) {
	payload, err := models.FreezeSnapshot(snapshot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to freeze document snapshot")
	}
	issuedAt := s.now().UTC().Truncate(time.Microsecond)

	for attempt := 1; attempt <= s.cfg.CodeAttempts; attempt++ {
		code, shortCode, err := s.generate()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate verification code")
		}
		record := &models.VerificationRecord{
			ID:        uuid.NewString(),
			Code:      code,
			ShortCode: shortCode,
			Kind:      snapshot.Kind,
			StudentID: snapshot.Student.ID,
			SchoolID:  snapshot.School.ID,
			IssuedAt:  issuedAt,
			Digest:    payload.Digest(),
			Snapshot:  payload.Clone(),
		}
		if approved {
			at := issuedAt
			record.ApprovedAt = &at
		}
		if s.cfg.TTL > 0 {
			expires := issuedAt.Add(s.cfg.TTL)
			record.ExpiresAt = &expires
		}

		err = s.store.Create(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, repository.ErrCodeConflict) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist verification record")
		}
		s.logger.Debug("verification code collision", zap.Int("attempt", attempt))
	}
	s.logger.Error("verification code space exhausted", zap.Int("attempts", s.cfg.CodeAttempts))
	return nil, appErrors.ErrCodeSpaceExhausted
}

// VerificationURL builds the QR payload for code.
func (s *VerificationService) VerificationURL(code string) string {
	sep := "?"
	if strings.Contains(s.cfg.BaseURL, "?") {
		sep = "&"
	}
	return s.cfg.BaseURL + sep + "code=" + url.QueryEscape(code)
}

// Verify resolves a long or short code. Unknown and expired codes are normal
// results carried in the response; the error is reserved for store failures
// and integrity failures.
func (s *VerificationService) Verify(ctx context.Context, rawCode string, lang models.Language) (*dto.VerifyResponse, error) {
	labels := locale.For(lang)
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		s.metrics.RecordVerification(OutcomeInvalid)
		return s.rejection(lang, appErrors.ErrInvalidCode, labels.VerifyInvalid), nil
	}

	var (
		record *models.VerificationRecord
		err    error
	)
	if short, ok := NormalizeShortCode(code); ok {
		record, err = s.store.FindByShortCode(ctx, short)
	} else {
		record, err = s.store.FindByCode(ctx, code)
	}
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			s.metrics.RecordVerification(OutcomeInvalid)
			return s.rejection(lang, appErrors.ErrInvalidCode, labels.VerifyInvalid), nil
		}
		s.metrics.RecordVerification(OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "verification lookup failed")
	}

	if record.Expired(s.now()) {
		if _, err := s.store.IncrementExpiredLookup(ctx, record.ID); err != nil {
			s.logger.Warn("failed to count expired lookup", zap.String("record_id", record.ID), zap.Error(err))
		}
		s.metrics.RecordVerification(OutcomeExpired)
		return s.rejection(lang, appErrors.ErrExpired, labels.VerifyExpired), nil
	}

	if record.Snapshot.Digest() != record.Digest {
		s.metrics.RecordVerification(OutcomeIntegrity)
		s.logger.Error("verification snapshot digest mismatch", zap.String("record_id", record.ID))
		return nil, appErrors.ErrIntegrityFailure
	}
	snapshot, err := record.Snapshot.Decode()
	if err != nil {
		s.metrics.RecordVerification(OutcomeIntegrity)
		return nil, appErrors.Wrap(err, appErrors.ErrIntegrityFailure.Code, appErrors.ErrIntegrityFailure.Status, appErrors.ErrIntegrityFailure.Message)
	}

	count, err := s.store.IncrementVerification(ctx, record.ID)
	if err != nil {
		s.metrics.RecordVerification(OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record verification")
	}
	s.metrics.RecordVerification(OutcomeVerified)

	resp := &dto.VerifyResponse{
		Success: true,
		Message: labels.VerifySuccess,
		Data:    buildVerifyData(record, snapshot, count, labels),
	}
	if lang != models.LanguageFR {
		resp.MessageFr = locale.For(models.LanguageFR).VerifySuccess
	}
	return resp, nil
}

// FailureResponse renders an infrastructure failure as a typed verify answer.
func (s *VerificationService) FailureResponse(lang models.Language, err error) *dto.VerifyResponse {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		appErr = appErrors.ErrInternal
	}
	return s.rejection(lang, appErr, locale.For(lang).VerifyFailure)
}

func (s *VerificationService) rejection(lang models.Language, reason *appErrors.Error, message string) *dto.VerifyResponse {
	resp := &dto.VerifyResponse{Success: false, Message: message, ErrorCode: reason.Code}
	if lang != models.LanguageFR {
		fr := locale.For(models.LanguageFR)
		switch reason.Code {
		case appErrors.ErrInvalidCode.Code:
			resp.MessageFr = fr.VerifyInvalid
		case appErrors.ErrExpired.Code:
			resp.MessageFr = fr.VerifyExpired
		default:
			resp.MessageFr = fr.VerifyFailure
		}
	}
	return resp
}

func buildVerifyData(record *models.VerificationRecord, snapshot models.DocumentSnapshot, count int64, labels locale.Labels) *dto.VerifyData {
	data := &dto.VerifyData{
		Student: dto.VerifyStudent{
			Name:      snapshot.Student.FullName(),
			Matricule: snapshot.Student.Matricule,
			Class:     snapshot.Student.ClassName,
		},
		School: dto.VerifySchool{Name: snapshot.School.Name, ID: snapshot.School.ID},
		Verification: dto.VerifyMeta{
			Kind:              record.Kind,
			IssuedAt:          record.IssuedAt,
			ApprovedAt:        record.ApprovedAt,
			VerificationCount: count,
			ShortCode:         record.ShortCode,
		},
		Periods: snapshot.Periods,
		Labels:  make(map[string]string, len(labels.Fields)),
	}
	for k, v := range labels.Fields {
		data.Labels[k] = v
	}
	if n := len(snapshot.Periods); n > 0 {
		latest := snapshot.Periods[n-1]
		data.Academic = dto.VerifyAcademic{
			Term:           latest.Term,
			AcademicYear:   latest.AcademicYear,
			GeneralAverage: latest.TermAverage,
			ClassRank:      latest.Rank,
			TotalStudents:  latest.TotalStudents,
		}
		if data.Student.Class == "" {
			data.Student.Class = latest.ClassName
		}
	}
	if snapshot.Kind == models.DocumentTranscript && snapshot.Statistics != nil {
		data.Academic.GeneralAverage = snapshot.Statistics.OverallAverage
	}
	return data
}

// RandomCodes draws a 32 hex digit code and a XXXX-XXXX short code from crypto/rand.
func RandomCodes() (string, string, error) {
	long := make([]byte, longCodeBytes)
	if _, err := rand.Read(long); err != nil {
		return "", "", fmt.Errorf("read random code: %w", err)
	}
	short := make([]byte, 5)
	if _, err := rand.Read(short); err != nil {
		return "", "", fmt.Errorf("read random short code: %w", err)
	}
	// 40 random bits make exactly eight 5-bit symbols
	var bits uint64
	for _, b := range short {
		bits = bits<<8 | uint64(b)
	}
	symbols := make([]byte, shortCodeLength)
	for i := shortCodeLength - 1; i >= 0; i-- {
		symbols[i] = shortCodeAlphabet[bits&31]
		bits >>= 5
	}
	return strings.ToUpper(hex.EncodeToString(long)), string(symbols[:4]) + "-" + string(symbols[4:]), nil
}

// NormalizeShortCode reports whether input has the short code shape and
// returns it in canonical XXXX-XXXX form. Dashes are optional.
func NormalizeShortCode(input string) (string, bool) {
	compact := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(input)), "-", "")
	if len(compact) != shortCodeLength {
		return "", false
	}
	for _, r := range compact {
		if !strings.ContainsRune(shortCodeAlphabet, r) {
			return "", false
		}
	}
	return compact[:4] + "-" + compact[4:], true
}
