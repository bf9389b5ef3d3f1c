package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/jobs"
)

// BatchJobType tags queue jobs produced by class batches.
const BatchJobType = "class_bulletins"

type batchJobStore interface {
	Create(ctx context.Context, job *models.BatchJob) error
	GetByID(ctx context.Context, id string) (*models.BatchJob, error)
	Update(ctx context.Context, id string, mutate func(*models.BatchJob)) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type documentGenerator interface {
	Generate(ctx context.Context, req dto.GenerateDocumentRequest) (*GeneratedDocument, error)
}

// BatchService accepts class batches and exposes their progress.
type BatchService struct {
	repo    batchJobStore
	queue   jobDispatcher
	metrics *MetricsService
	logger  *zap.Logger
}

// NewBatchService constructs the batch service.
func NewBatchService(repo batchJobStore, queue jobDispatcher, metrics *MetricsService, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, queue: queue, metrics: metrics, logger: logger}
}

// Submit records a batch and hands it to the worker pool.
func (s *BatchService) Submit(ctx context.Context, req dto.BatchGenerateRequest, actorID string) (*dto.BatchJobResponse, error) {
	if len(req.Students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch requires at least one student")
	}
	seen := make(map[string]struct{}, len(req.Students))
	for _, student := range req.Students {
		if _, dup := seen[student.Student.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s listed twice", student.Student.ID))
		}
		seen[student.Student.ID] = struct{}{}
	}

	job := &models.BatchJob{
		ID:        uuid.NewString(),
		Status:    models.BatchStatusQueued,
		Total:     len(req.Students),
		CreatedBy: actorID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: BatchJobType, Payload: req}); err != nil {
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, func(j *models.BatchJob) {
			j.Status = models.BatchStatusFailed
			j.Failures = append(j.Failures, models.BatchFailure{Reason: "failed to enqueue batch"})
			j.FinishedAt = &now
		})
		s.metrics.RecordBatchJob(string(models.BatchStatusFailed))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue batch job")
	}
	s.metrics.RecordBatchJob(string(models.BatchStatusQueued))
	return &dto.BatchJobResponse{ID: job.ID, Status: job.Status, Total: job.Total}, nil
}

// Status returns the batch progress.
func (s *BatchService) Status(ctx context.Context, id, actorID string, role models.UserRole) (*models.BatchJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBatchJobNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch job")
	}
	if role == models.RoleTeacher && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	return job, nil
}

// BatchWorker turns queued batches into one bulletin per student.
type BatchWorker struct {
	repo       batchJobStore
	aggregator *AggregatorService
	documents  documentGenerator
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewBatchWorker constructs a worker.
func NewBatchWorker(repo batchJobStore, aggregator *AggregatorService, documents documentGenerator, metrics *MetricsService, logger *zap.Logger) *BatchWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchWorker{repo: repo, aggregator: aggregator, documents: documents, metrics: metrics, logger: logger}
}

// Handle processes one batch. Students already issued on a previous attempt
// are skipped so a retry never issues a second code for them.
func (w *BatchWorker) Handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.BatchGenerateRequest)
	if !ok {
		return fmt.Errorf("batch %s: unexpected payload %T", job.ID, job.Payload)
	}
	current, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	done := make(map[string]struct{}, len(current.Issued)+len(current.Failures))
	for _, issued := range current.Issued {
		done[issued.StudentID] = struct{}{}
	}
	for _, failure := range current.Failures {
		done[failure.StudentID] = struct{}{}
	}
	if err := w.repo.Update(ctx, job.ID, func(j *models.BatchJob) { j.Status = models.BatchStatusProcessing }); err != nil {
		return err
	}

	classmates := make([]models.ClassmateAverage, 0, len(req.Students))
	for _, student := range req.Students {
		average, err := w.aggregator.WeightedAverage(student.Subjects)
		if err != nil {
			continue
		}
		classmates = append(classmates, models.ClassmateAverage{
			StudentID: student.Student.ID,
			Surname:   student.Student.LastName,
			Average:   average,
		})
	}

	for _, student := range req.Students {
		if _, skip := done[student.Student.ID]; skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := w.documents.Generate(ctx, w.bulletinRequest(req, student, classmates))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn("batch student failed",
				zap.String("batch_id", job.ID),
				zap.String("student_id", student.Student.ID),
				zap.Error(err))
			w.record(ctx, job.ID, func(j *models.BatchJob) {
				j.Failures = append(j.Failures, models.BatchFailure{StudentID: student.Student.ID, Reason: err.Error()})
			})
			continue
		}
		rank := 0
		if snap, err := doc.Record.Snapshot.Decode(); err == nil && len(snap.Periods) > 0 {
			rank = snap.Periods[0].Rank
		}
		w.record(ctx, job.ID, func(j *models.BatchJob) {
			j.Issued = append(j.Issued, models.BatchIssued{
				StudentID:   student.Student.ID,
				Code:        doc.Record.Code,
				ShortCode:   doc.Record.ShortCode,
				Rank:        rank,
				DownloadURL: doc.DownloadURL,
			})
		})
	}

	var status models.BatchStatus
	now := time.Now().UTC()
	err = w.repo.Update(ctx, job.ID, func(j *models.BatchJob) {
		j.Status = models.BatchStatusFinished
		if len(j.Issued) == 0 {
			j.Status = models.BatchStatusFailed
		}
		j.FinishedAt = &now
		status = j.Status
	})
	if err != nil {
		return err
	}
	w.metrics.RecordBatchJob(string(status))
	w.logger.Info("batch finished", zap.String("batch_id", job.ID), zap.String("status", string(status)))
	return nil
}

// GiveUp marks a batch failed once the queue stops retrying it.
func (w *BatchWorker) GiveUp(job jobs.Job, cause error) {
	now := time.Now().UTC()
	err := w.repo.Update(context.Background(), job.ID, func(j *models.BatchJob) {
		j.Status = models.BatchStatusFailed
		j.Failures = append(j.Failures, models.BatchFailure{Reason: cause.Error()})
		j.FinishedAt = &now
	})
	if err != nil {
		w.logger.Warn("failed to mark batch failed", zap.String("batch_id", job.ID), zap.Error(err))
	}
	w.metrics.RecordBatchJob(string(models.BatchStatusFailed))
}

func (w *BatchWorker) bulletinRequest(req dto.BatchGenerateRequest, student dto.BatchStudent, classmates []models.ClassmateAverage) dto.GenerateDocumentRequest {
	identity := student.Student
	if identity.ClassName == "" {
		identity.ClassName = req.ClassName
	}
	return dto.GenerateDocumentRequest{
		Kind:    models.DocumentBulletin,
		Student: identity,
		School:  req.School,
		Periods: []models.PeriodInput{{
			AcademicYear:        req.AcademicYear,
			ClassName:           req.ClassName,
			Term:                req.Term,
			Subjects:            student.Subjects,
			Decision:            student.Decision,
			Classmates:          classmates,
			Absences:            student.Absences,
			DisciplinaryRecords: student.DisciplinaryRecords,
			Awards:              student.Awards,
			CouncilRemark:       student.CouncilRemark,
		}},
		Options: req.Options,
	}
}

func (w *BatchWorker) record(ctx context.Context, id string, mutate func(*models.BatchJob)) {
	if err := w.repo.Update(ctx, id, mutate); err != nil {
		w.logger.Warn("failed to record batch progress", zap.String("batch_id", id), zap.Error(err))
	}
}
