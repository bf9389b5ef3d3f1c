package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/layout"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

type stubPhotos struct {
	photo *layout.Photo
	err   error
	calls int
}

func (s *stubPhotos) Fetch(ctx context.Context, url string) (*layout.Photo, error) {
	s.calls++
	return s.photo, s.err
}

type documentFixture struct {
	svc    *DocumentService
	store  *repository.VerificationMemoryRepository
	verify *VerificationService
	signer *storage.SignedURLSigner
	files  *storage.LocalStorage
}

func newDocumentFixture(t *testing.T, photos photoFetcher) documentFixture {
	t.Helper()
	store := repository.NewVerificationMemoryRepository()
	verify := newTestVerificationService(store, 0)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewDocumentService(
		NewAggregatorService(DefaultAggregatorConfig(), nil),
		verify,
		layout.NewEngine(layout.DefaultMetrics(), nil),
		photos,
		files,
		signer,
		NewMetricsService(),
		nil,
		DocumentServiceConfig{APIPrefix: "/api/v1/"},
	)
	return documentFixture{svc: svc, store: store, verify: verify, signer: signer, files: files}
}

func documentPeriod(year, term string) models.PeriodInput {
	return models.PeriodInput{
		AcademicYear:  year,
		ClassName:     "Terminale C",
		Term:          term,
		Subjects:      sampleSubjects(),
		Decision:      models.DecisionPassed,
		Rank:          2,
		TotalStudents: 31,
		Awards:        []string{"Tableau d'honneur"},
	}
}

func documentRequest(periods ...models.PeriodInput) dto.GenerateDocumentRequest {
	return dto.GenerateDocumentRequest{
		Student: models.StudentIdentity{ID: "stu-1", Matricule: "M/001", FirstName: "Awa", LastName: "Diallo", ClassName: "Terminale C", PhotoURL: "https://photos.example.org/awa.png"},
		School:  models.SchoolIdentity{ID: "sch-1", Name: "Lycée Moderne", PrincipalName: "M. Traoré"},
		Periods: periods,
	}
}

func testPhoto(t *testing.T) *layout.Photo {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 80))
	for x := 0; x < 60; x++ {
		for y := 0; y < 80; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	photo, err := Thumbnail(buf.Bytes())
	require.NoError(t, err)
	return photo
}

func TestDocumentGenerateBulletin(t *testing.T) {
	photos := &stubPhotos{photo: testPhoto(t)}
	fx := newDocumentFixture(t, photos)
	req := documentRequest(documentPeriod("2023-2024", "Trimestre 1"))
	req.Options = models.RenderOptions{IncludePhoto: true, OfficialSeal: true}

	doc, err := fx.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentBulletin, doc.Record.Kind)
	assert.True(t, bytes.HasPrefix(doc.PDF, []byte("%PDF")))
	assert.GreaterOrEqual(t, doc.Pages, 1)
	assert.True(t, doc.PhotoRendered)
	assert.Equal(t, 1, photos.calls)
	require.NotNil(t, doc.Record.ApprovedAt)
	assert.Equal(t, fx.verify.VerificationURL(doc.Record.Code), doc.VerifyURL)
	assert.True(t, strings.HasPrefix(doc.DownloadURL, "/api/v1/documents/download/"))
	assert.Contains(t, doc.FileName, "bulletin-M-001-"+doc.Record.ShortCode+".pdf")
	assert.Equal(t, 1, fx.store.Len())

	resp := doc.Response()
	assert.Equal(t, len(doc.PDF), resp.SizeBytes)
	assert.Equal(t, doc.Record.Code, resp.Code)

	answer, err := fx.verify.Verify(context.Background(), doc.Record.ShortCode, models.LanguageFR)
	require.NoError(t, err)
	require.True(t, answer.Success)
	assert.Equal(t, "Awa DIALLO", answer.Data.Student.Name)

	token := strings.TrimPrefix(doc.DownloadURL, "/api/v1/documents/download/")
	download, err := fx.svc.Download(token)
	require.NoError(t, err)
	defer download.File.Close()
	stored, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, doc.PDF, stored)
	assert.True(t, strings.HasSuffix(download.Filename, ".pdf"))
}

func TestDocumentDefaultKindAndStatistics(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	req := documentRequest(documentPeriod("2022-2023", "Annuel"), documentPeriod("2023-2024", "Annuel"))

	plain, err := fx.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentTranscript, plain.Record.Kind)
	snap, err := plain.Record.Snapshot.Decode()
	require.NoError(t, err)
	assert.Nil(t, snap.Statistics)
	assert.Len(t, snap.Periods, 2)

	req.Options.IncludeStatistics = true
	withStats, err := fx.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	snap, err = withStats.Record.Snapshot.Decode()
	require.NoError(t, err)
	require.NotNil(t, snap.Statistics)
	assert.Equal(t, 2, snap.Statistics.TotalYears)
	assert.NotEqual(t, plain.Record.Code, withStats.Record.Code)
}

func TestDocumentGenerateRejectsBadInput(t *testing.T) {
	fx := newDocumentFixture(t, nil)

	_, err := fx.svc.Generate(context.Background(), documentRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrEmptyHistory.Code))

	two := documentRequest(documentPeriod("2022-2023", "Annuel"), documentPeriod("2023-2024", "Annuel"))
	two.Kind = models.DocumentBulletin
	_, err = fx.svc.Generate(context.Background(), two)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidInput.Code))

	scheme := documentRequest(documentPeriod("2023-2024", "Trimestre 1"))
	scheme.Options.ColorScheme = "NEON"
	_, err = fx.svc.Generate(context.Background(), scheme)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnknownOption.Code))

	decision := documentPeriod("2023-2024", "Trimestre 1")
	decision.Decision = "EXPELLED"
	_, err = fx.svc.Generate(context.Background(), documentRequest(decision))
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidDecision.Code))

	assert.Zero(t, fx.store.Len(), "failed requests never issue a code")
}

func TestDocumentLayoutOverflowIssuesNoCode(t *testing.T) {
	store := repository.NewVerificationMemoryRepository()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	metrics := layout.DefaultMetrics()
	metrics.SignatureHeight = 400
	svc := NewDocumentService(
		NewAggregatorService(DefaultAggregatorConfig(), nil),
		newTestVerificationService(store, 0),
		layout.NewEngine(metrics, nil),
		nil,
		files,
		storage.NewSignedURLSigner("test-secret", time.Hour),
		NewMetricsService(),
		nil,
		DocumentServiceConfig{APIPrefix: "/api/v1/"},
	)

	_, err = svc.Generate(context.Background(), documentRequest(documentPeriod("2023-2024", "Trimestre 1")))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrLayoutOverflow.Code))
	assert.Zero(t, store.Len())
}

func TestDocumentPhotoFailureDegrades(t *testing.T) {
	photos := &stubPhotos{err: errors.New("connection refused")}
	fx := newDocumentFixture(t, photos)
	req := documentRequest(documentPeriod("2023-2024", "Trimestre 1"))
	req.Options.IncludePhoto = true

	doc, err := fx.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, doc.PhotoRendered)
	assert.Equal(t, 1, photos.calls)
}

func TestDocumentPhotoSkippedWhenNotRequested(t *testing.T) {
	photos := &stubPhotos{photo: testPhoto(t)}
	fx := newDocumentFixture(t, photos)

	doc, err := fx.svc.Generate(context.Background(), documentRequest(documentPeriod("2023-2024", "Trimestre 1")))
	require.NoError(t, err)
	assert.False(t, doc.PhotoRendered)
	assert.Zero(t, photos.calls)
}

func TestDocumentDownloadTokens(t *testing.T) {
	fx := newDocumentFixture(t, nil)

	_, err := fx.svc.Download("garbage")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden.Code))

	past := time.Now().Add(-2 * time.Hour)
	fx.signer.WithClock(func() time.Time { return past })
	token, _, err := fx.signer.Generate("doc-1", "2024/01/x.pdf")
	require.NoError(t, err)
	fx.signer.WithClock(time.Now)
	_, err = fx.svc.Download(token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrExpired.Code))

	token, _, err = fx.signer.Generate("doc-1", "2024/01/missing.pdf")
	require.NoError(t, err)
	_, err = fx.svc.Download(token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestDocumentCleanupKeepsVerificationRecords(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	fx.svc.cfg.Retention = time.Nanosecond
	doc, err := fx.svc.Generate(context.Background(), documentRequest(documentPeriod("2023-2024", "Trimestre 1")))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	deleted := fx.svc.Cleanup()
	assert.Contains(t, deleted, doc.FileName)

	answer, err := fx.verify.Verify(context.Background(), doc.Record.Code, models.LanguageEN)
	require.NoError(t, err)
	assert.True(t, answer.Success)
}

func TestDocumentExportCSV(t *testing.T) {
	fx := newDocumentFixture(t, nil)
	data, name, err := fx.svc.ExportCSV(documentRequest(documentPeriod("2022-2023", "Annuel"), documentPeriod("2023-2024", "Annuel")))
	require.NoError(t, err)
	assert.Equal(t, "M-001-2023-2024.csv", name)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "\ufeffacademic_year;term;class;subject"))
	assert.Contains(t, text, "Mathématiques;4;16.50;20")
	assert.Contains(t, text, ";16.06;2/31;")
	assert.Contains(t, text, "overall")
	assert.Zero(t, fx.store.Len())

	_, _, err = fx.svc.ExportCSV(documentRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrEmptyHistory.Code))
}

func TestResolveKind(t *testing.T) {
	kind, err := resolveKind("", 1)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentBulletin, kind)

	kind, err = resolveKind(models.DocumentTranscript, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentTranscript, kind)

	_, err = resolveKind("REPORT_CARD", 1)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnknownOption.Code))
}
