package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/layout"
	"github.com/noah-isme/sma-records-api/internal/locale"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/export"
	"github.com/noah-isme/sma-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

type documentIssuer interface {
	Issue(ctx context.Context, snapshot models.DocumentSnapshot, approved bool) (*models.VerificationRecord, error)
	VerificationURL(code string) string
}

type photoFetcher interface {
	Fetch(ctx context.Context, url string) (*layout.Photo, error)
}

type documentRenderer interface {
	Check(canvas export.Canvas, doc layout.Document) error
	Render(canvas export.Canvas, doc layout.Document) (*layout.Result, error)
}

type documentFileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type documentURLSigner interface {
	Generate(documentID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (documentID, relPath string, expiresAt time.Time, err error)
}

// CanvasFactory opens a blank canvas for one document.
type CanvasFactory func(format models.PageFormat, title string) export.Canvas

// PDFCanvasFactory renders onto gofpdf.
func PDFCanvasFactory(format models.PageFormat, title string) export.Canvas {
	size := "A4"
	if format == models.PageLetter {
		size = "Letter"
	}
	return export.NewPDFCanvas(size, title)
}

// DocumentServiceConfig tunes document assembly.
type DocumentServiceConfig struct {
	APIPrefix       string
	DefaultLanguage models.Language
	Retention       time.Duration
	CleanupInterval time.Duration
}

// GeneratedDocument is the final output of one assembly.
type GeneratedDocument struct {
	Record            *models.VerificationRecord
	VerifyURL         string
	PDF               []byte
	Pages             int
	PhotoRendered     bool
	FileName          string
	DownloadURL       string
	DownloadExpiresAt time.Time
}

// Response maps the document to its API representation.
func (d *GeneratedDocument) Response() dto.GenerateDocumentResponse {
	return dto.GenerateDocumentResponse{
		DocumentID:        d.Record.ID,
		Kind:              d.Record.Kind,
		Code:              d.Record.Code,
		ShortCode:         d.Record.ShortCode,
		VerifyURL:         d.VerifyURL,
		IssuedAt:          d.Record.IssuedAt,
		ApprovedAt:        d.Record.ApprovedAt,
		ExpiresAt:         d.Record.ExpiresAt,
		Pages:             d.Pages,
		PhotoRendered:     d.PhotoRendered,
		FileName:          d.FileName,
		SizeBytes:         len(d.PDF),
		DownloadURL:       d.DownloadURL,
		DownloadExpiresAt: d.DownloadExpiresAt,
	}
}

// DocumentDownload is an open stored document.
type DocumentDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// DocumentService assembles verifiable academic documents.
type DocumentService struct {
	aggregator *AggregatorService
	issuer     documentIssuer
	renderer   documentRenderer
	photos     photoFetcher
	storage    documentFileStorage
	signer     documentURLSigner
	newCanvas  CanvasFactory
	csv        *export.CSVExporter
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        DocumentServiceConfig
}

// NewDocumentService constructs the assembler.
func NewDocumentService(aggregator *AggregatorService, issuer documentIssuer, renderer documentRenderer, photos photoFetcher, storage documentFileStorage, signer documentURLSigner, metrics *MetricsService, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = models.LanguageFR
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &DocumentService{
		aggregator: aggregator,
		issuer:     issuer,
		renderer:   renderer,
		photos:     photos,
		storage:    storage,
		signer:     signer,
		newCanvas:  PDFCanvasFactory,
		csv:        export.NewCSVExporter(export.CSVOptions{Comma: ';', BOM: true}),
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// WithCanvasFactory overrides the rendering backend.
func (s *DocumentService) WithCanvasFactory(factory CanvasFactory) *DocumentService {
	if factory != nil {
		s.newCanvas = factory
	}
	return s
}

// Generate aggregates, issues, renders and stores one document. Any failure
// aborts the whole operation; only the photo is best-effort.
func (s *DocumentService) Generate(ctx context.Context, req dto.GenerateDocumentRequest) (*GeneratedDocument, error) {
	start := time.Now()
	log := s.logger
	if id := requestid.FromContext(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	opts, err := req.Options.Normalize(s.cfg.DefaultLanguage)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnknownOption.Code, appErrors.ErrUnknownOption.Status, err.Error())
	}
	kind, err := resolveKind(req.Kind, len(req.Periods))
	if err != nil {
		return nil, err
	}

	labels := locale.For(opts.Language)
	canvas := s.newCanvas(opts.PageFormat, labels.Title(kind)+" - "+req.Student.FullName())

	var (
		photo  *layout.Photo
		record *models.VerificationRecord
		snap   models.DocumentSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	if opts.IncludePhoto && req.Student.PhotoURL != "" && s.photos != nil {
		g.Go(func() error {
			p, err := s.photos.Fetch(gctx, req.Student.PhotoURL)
			if err != nil {
				log.Warn("identity photo unavailable, rendering without photo",
					zap.String("student_id", req.Student.ID), zap.Error(err))
				return nil
			}
			photo = p
			return nil
		})
	}
	g.Go(func() error {
		var err error
		snap, err = s.buildSnapshot(kind, opts, req)
		if err != nil {
			return err
		}
		// A document that cannot be laid out must not consume a code.
		if err := s.renderer.Check(canvas, layout.Document{Snapshot: snap, Options: opts}); err != nil {
			return err
		}
		record, err = s.issuer.Issue(gctx, snap, opts.OfficialSeal)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verifyURL := s.issuer.VerificationURL(record.Code)
	result, err := s.renderer.Render(canvas, layout.Document{
		Snapshot:  snap,
		Options:   opts,
		Code:      record.Code,
		ShortCode: record.ShortCode,
		VerifyURL: verifyURL,
		IssuedAt:  record.IssuedAt,
		Photo:     photo,
	})
	if err != nil {
		return nil, err
	}
	pdf, err := canvas.Bytes()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode document")
	}
	if opts.IncludePhoto && req.Student.PhotoURL != "" && !result.PhotoRendered {
		s.metrics.RecordPhotoFallback()
	}

	doc := &GeneratedDocument{
		Record:        record,
		VerifyURL:     verifyURL,
		PDF:           pdf,
		Pages:         result.Pages,
		PhotoRendered: result.PhotoRendered,
	}
	if err := s.store(doc, req.Student); err != nil {
		return nil, err
	}

	s.metrics.ObserveDocument(string(kind), time.Since(start))
	log.Info("document generated",
		zap.String("document_id", record.ID),
		zap.String("kind", string(kind)),
		zap.String("student_id", req.Student.ID),
		zap.Int("pages", result.Pages),
		zap.Duration("elapsed", time.Since(start)))
	return doc, nil
}

// Aggregate computes periods and statistics without issuing anything.
func (s *DocumentService) Aggregate(req dto.GenerateDocumentRequest) ([]models.AcademicPeriod, *models.OverallStatistics, error) {
	return s.aggregate(req.Student, req.Periods)
}

// ExportCSV renders the computed history as one row per (period, subject)
// followed by one summary row per period.
func (s *DocumentService) ExportCSV(req dto.GenerateDocumentRequest) ([]byte, string, error) {
	opts, err := req.Options.Normalize(s.cfg.DefaultLanguage)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnknownOption.Code, appErrors.ErrUnknownOption.Status, err.Error())
	}
	if len(req.Periods) == 0 {
		return nil, "", appErrors.ErrEmptyHistory
	}
	periods, stats, err := s.aggregate(req.Student, req.Periods)
	if err != nil {
		return nil, "", err
	}
	labels := locale.For(opts.Language)
	dataset := export.Dataset{Headers: []string{"academic_year", "term", "class", "subject", "coefficient", "grade", "max_score", "average", "rank", "decision"}}
	for _, period := range periods {
		for _, subject := range period.Subjects {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"academic_year": period.AcademicYear,
				"term":          period.Term,
				"class":         period.ClassName,
				"subject":       subject.Name,
				"coefficient":   strconv.FormatFloat(subject.Coefficient, 'f', -1, 64),
				"grade":         strconv.FormatFloat(subject.Grade, 'f', 2, 64),
				"max_score":     strconv.FormatFloat(subject.MaxScore, 'f', -1, 64),
			})
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"academic_year": period.AcademicYear,
			"term":          period.Term,
			"class":         period.ClassName,
			"average":       strconv.FormatFloat(period.TermAverage, 'f', 2, 64),
			"rank":          rankCell(period.Rank, period.TotalStudents),
			"decision":      labels.DecisionLabel(period.Decision),
		})
	}
	if stats != nil && len(periods) > 1 {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"academic_year": stats.BestYear,
			"term":          "overall",
			"average":       strconv.FormatFloat(stats.OverallAverage, 'f', 2, 64),
		})
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	name := fmt.Sprintf("%s-%s.csv", sanitizeFilename(req.Student.Matricule), sanitizeFilename(periods[len(periods)-1].AcademicYear))
	return data, name, nil
}

func rankCell(rank, total int) string {
	if rank <= 0 {
		return ""
	}
	if total <= 0 {
		return strconv.Itoa(rank)
	}
	return fmt.Sprintf("%d/%d", rank, total)
}

// Download resolves a signed token to the stored file.
func (s *DocumentService) Download(token string) (*DocumentDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrExpired, "download link has expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document file no longer available")
	}
	name := relPath
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return &DocumentDownload{File: file, Filename: name, ExpiresAt: expiresAt}, nil
}

// StartCleanup purges stored files past retention on every interval tick.
// Verification records are never touched.
func (s *DocumentService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes stored documents older than the retention window.
func (s *DocumentService) Cleanup() []string {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		s.logger.Warn("document cleanup failed", zap.Error(err))
		return nil
	}
	if len(deleted) > 0 {
		s.logger.Info("document cleanup removed files", zap.Int("count", len(deleted)))
	}
	return deleted
}

func (s *DocumentService) buildSnapshot(kind models.DocumentKind, opts models.RenderOptions, req dto.GenerateDocumentRequest) (models.DocumentSnapshot, error) {
	periods, stats, err := s.aggregate(req.Student, req.Periods)
	if err != nil {
		return models.DocumentSnapshot{}, err
	}
	snap := models.DocumentSnapshot{
		Kind:     kind,
		Language: opts.Language,
		Student:  req.Student,
		School:   req.School,
		Periods:  periods,
	}
	if opts.IncludeStatistics {
		snap.Statistics = stats
	}
	return snap, nil
}

func (s *DocumentService) aggregate(student models.StudentIdentity, inputs []models.PeriodInput) ([]models.AcademicPeriod, *models.OverallStatistics, error) {
	periods := make([]models.AcademicPeriod, 0, len(inputs))
	for _, in := range inputs {
		period, err := s.aggregator.ComputePeriod(student.ID, student.LastName, in)
		if err != nil {
			return nil, nil, err
		}
		periods = append(periods, period)
	}
	stats, err := s.aggregator.Overall(periods)
	if err != nil {
		return nil, nil, err
	}
	return periods, stats, nil
}

func (s *DocumentService) store(doc *GeneratedDocument, student models.StudentIdentity) error {
	if s.storage == nil || s.signer == nil {
		return nil
	}
	name := fmt.Sprintf("%s/%s-%s-%s.pdf",
		doc.Record.IssuedAt.Format("2006/01"),
		strings.ToLower(string(doc.Record.Kind)),
		sanitizeFilename(student.Matricule),
		doc.Record.ShortCode)
	rel, err := s.storage.Save(name, doc.PDF)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	token, expiresAt, err := s.signer.Generate(doc.Record.ID, rel)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	doc.FileName = rel
	doc.DownloadURL = prefix + "/documents/download/" + token
	doc.DownloadExpiresAt = expiresAt
	return nil
}

// resolveKind picks BULLETIN for a single period unless the caller asked otherwise.
func resolveKind(requested models.DocumentKind, periods int) (models.DocumentKind, error) {
	if periods == 0 {
		return "", appErrors.ErrEmptyHistory
	}
	switch requested {
	case "":
		if periods == 1 {
			return models.DocumentBulletin, nil
		}
		return models.DocumentTranscript, nil
	case models.DocumentBulletin:
		if periods != 1 {
			return "", appErrors.Clone(appErrors.ErrInvalidInput, "a bulletin covers exactly one period")
		}
		return requested, nil
	case models.DocumentTranscript:
		return requested, nil
	default:
		return "", appErrors.Clone(appErrors.ErrUnknownOption, fmt.Sprintf("unknown document kind %q", requested))
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "|", "-")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
