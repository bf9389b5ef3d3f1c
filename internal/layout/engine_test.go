package layout

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/export"
)

type drawnText struct {
	page int
	x, y float64
	w    float64
	text string
}

type recordingCanvas struct {
	width, height float64
	page          int
	texts         []drawnText
	images        int
	qrPayloads    []string
	imageErr      error
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{width: 210, height: 297}
}

func (c *recordingCanvas) PageSize() (float64, float64) { return c.width, c.height }
func (c *recordingCanvas) AddPage()                     { c.page++ }
func (c *recordingCanvas) PageNo() int                  { return c.page }

func (c *recordingCanvas) Text(x, y, w, h float64, text string, style export.TextStyle) {
	c.texts = append(c.texts, drawnText{page: c.page, x: x, y: y, w: w, text: text})
}

// TextWidth approximates every glyph as a fifth of the font size.
func (c *recordingCanvas) TextWidth(text string, style export.TextStyle) float64 {
	return float64(len([]rune(text))) * style.Size * 0.2
}

func (c *recordingCanvas) FillRect(x, y, w, h float64, fill export.Color) {}

func (c *recordingCanvas) Image(name, imageType string, data []byte, x, y, w, h float64) error {
	if c.imageErr != nil {
		return c.imageErr
	}
	c.images++
	return nil
}

func (c *recordingCanvas) QRCode(payload string, x, y, size float64) error {
	c.qrPayloads = append(c.qrPayloads, payload)
	return nil
}

func (c *recordingCanvas) Bytes() ([]byte, error) { return []byte("%PDF"), nil }

func subjects(n int) []models.SubjectRecord {
	out := make([]models.SubjectRecord, n)
	for i := range out {
		out[i] = models.SubjectRecord{
			Name:        fmt.Sprintf("Subject %02d", i+1),
			TeacherName: "M. Traore",
			Coefficient: 2,
			Grade:       float64(8 + i%12),
			MaxScore:    20,
		}
	}
	return out
}

func sampleDocument(periods ...[]models.SubjectRecord) Document {
	mention := models.MentionGood
	snap := models.DocumentSnapshot{
		Kind:     models.DocumentTranscript,
		Language: models.LanguageFR,
		Student:  models.StudentIdentity{ID: "stu-1", Matricule: "M-001", FirstName: "Awa", LastName: "Diallo"},
		School:   models.SchoolIdentity{ID: "sch-1", Name: "Lycée Moderne", PrincipalName: "Mme Koné"},
		Statistics: &models.OverallStatistics{
			TotalYears: 1, OverallAverage: 14.2, BestAverage: 14.2, BestYear: "2023-2024", OverallMention: mention,
		},
	}
	for i, list := range periods {
		snap.Periods = append(snap.Periods, models.AcademicPeriod{
			AcademicYear:  "2023-2024",
			ClassName:     "Terminale C",
			Term:          fmt.Sprintf("Trimestre %d", i+1),
			Subjects:      list,
			TermAverage:   14.2,
			Rank:          3,
			TotalStudents: 30,
			Decision:      models.DecisionPassed,
			Mention:       &mention,
		})
	}
	return Document{
		Snapshot:  snap,
		Options:   models.RenderOptions{Language: models.LanguageFR, PageFormat: models.PageA4, ColorScheme: models.SchemeOfficial, IncludeStatistics: true, IncludeCertifications: true},
		Code:      "9F2C4A7E1B3D5F60",
		ShortCode: "K7QD-3MXA",
		VerifyURL: "https://records.example.org/verify?code=9F2C4A7E1B3D5F60",
		IssuedAt:  time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func placementsOf(res *Result, kind UnitKind) []Placement {
	var out []Placement
	for _, p := range res.Placements {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func TestEngineRenderSinglePage(t *testing.T) {
	canvas := newRecordingCanvas()
	res, err := NewEngine(DefaultMetrics(), nil).Render(canvas, sampleDocument(subjects(8)))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, placementsOf(res, UnitSubjectRow), 8)
	assert.Len(t, placementsOf(res, UnitSummary), 1)
	assert.Len(t, placementsOf(res, UnitSignatures), 1)
	assert.Equal(t, []string{"https://records.example.org/verify?code=9F2C4A7E1B3D5F60"}, canvas.qrPayloads)
}

func TestEngineRepeatsHeaderOnEveryPage(t *testing.T) {
	canvas := newRecordingCanvas()
	res, err := NewEngine(DefaultMetrics(), nil).Render(canvas, sampleDocument(subjects(30), subjects(30), subjects(30)))
	require.NoError(t, err)
	require.Greater(t, res.Pages, 2)
	assert.Equal(t, res.Pages, canvas.page)

	headers := placementsOf(res, UnitPageHeader)
	footers := placementsOf(res, UnitPageFooter)
	require.Len(t, headers, res.Pages)
	require.Len(t, footers, res.Pages)
	for i, h := range headers {
		assert.Equal(t, i+1, h.Page)
	}
}

func TestEngineKeepsUnitsInsideContentArea(t *testing.T) {
	res, err := NewEngine(DefaultMetrics(), nil).Render(newRecordingCanvas(), sampleDocument(subjects(45), subjects(12)))
	require.NoError(t, err)
	for _, p := range res.Placements {
		if p.Kind == UnitPageHeader || p.Kind == UnitPageFooter {
			continue
		}
		assert.LessOrEqual(t, p.Y+p.Height, res.ContentBottom+1e-6, "%s on page %d", p.Kind, p.Page)
	}
}

func TestEngineContinuedTableStartsWithColumnHeader(t *testing.T) {
	res, err := NewEngine(DefaultMetrics(), nil).Render(newRecordingCanvas(), sampleDocument(subjects(60)))
	require.NoError(t, err)
	require.Greater(t, res.Pages, 1)

	for i, p := range res.Placements {
		if p.Kind != UnitSubjectRow {
			continue
		}
		prev := res.Placements[i-1]
		if prev.Page != p.Page || prev.Kind == UnitPageFooter {
			t.Fatalf("row %d opens page %d without a column header", p.Row, p.Page)
		}
		assert.Contains(t, []UnitKind{UnitColumnHeader, UnitSubjectRow}, prev.Kind, "page %d row %d", p.Page, p.Row)
	}

	rows := placementsOf(res, UnitSubjectRow)
	assert.Len(t, rows, 60)
	for i, r := range rows {
		assert.Equal(t, i, r.Row)
	}
}

func TestEnginePeriodBandNeverEndsPage(t *testing.T) {
	res, err := NewEngine(DefaultMetrics(), nil).Render(newRecordingCanvas(), sampleDocument(subjects(25), subjects(25), subjects(25)))
	require.NoError(t, err)
	for i, p := range res.Placements {
		if p.Kind != UnitPeriodBand {
			continue
		}
		require.Less(t, i+2, len(res.Placements))
		next := res.Placements[i+1]
		assert.Equal(t, UnitColumnHeader, next.Kind)
		assert.Equal(t, p.Page, next.Page)
		assert.Equal(t, p.Page, res.Placements[i+2].Page)
	}
}

func TestEngineLayoutOverflow(t *testing.T) {
	metrics := DefaultMetrics()
	metrics.SignatureHeight = 400
	canvas := newRecordingCanvas()
	_, err := NewEngine(metrics, nil).Render(canvas, sampleDocument(subjects(3)))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrLayoutOverflow.Code))
	assert.Zero(t, canvas.page, "nothing drawn before overflow detection")
}

func TestEngineCheckMatchesRenderWithoutDrawing(t *testing.T) {
	metrics := DefaultMetrics()
	metrics.SignatureHeight = 400
	canvas := newRecordingCanvas()
	err := NewEngine(metrics, nil).Check(canvas, sampleDocument(subjects(3)))
	assert.True(t, appErrors.HasCode(err, appErrors.ErrLayoutOverflow.Code))

	doc := sampleDocument(subjects(3))
	doc.Options.ColorScheme = "NEON"
	err = NewEngine(DefaultMetrics(), nil).Check(canvas, doc)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnknownOption.Code))

	require.NoError(t, NewEngine(DefaultMetrics(), nil).Check(canvas, sampleDocument(subjects(60))))
	assert.Zero(t, canvas.page)
	assert.Empty(t, canvas.texts)
}

func TestEngineSummaryMovesWholeToNextPage(t *testing.T) {
	m := DefaultMetrics()
	for n := 1; n <= 60; n++ {
		res, err := NewEngine(m, nil).Render(newRecordingCanvas(), sampleDocument(subjects(n)))
		require.NoError(t, err)

		rows := placementsOf(res, UnitSubjectRow)
		summaries := placementsOf(res, UnitSummary)
		require.Len(t, summaries, 1)
		last, summary := rows[len(rows)-1], summaries[0]
		if summary.Page == last.Page {
			continue
		}

		assert.Equal(t, last.Page+1, summary.Page)
		assert.Greater(t, last.Y+last.Height+m.SummaryHeight, res.ContentBottom)
		assert.InDelta(t, res.ContentTop, summary.Y, 1e-6)
		assert.LessOrEqual(t, summary.Y+summary.Height, res.ContentBottom+1e-6)
		return
	}
	t.Fatal("no row count pushed the summary onto a new page")
}

func TestEnginePhotoFailureDegrades(t *testing.T) {
	doc := sampleDocument(subjects(4))
	doc.Options.IncludePhoto = true
	doc.Photo = &Photo{Data: []byte("not an image"), Type: "JPG"}

	canvas := newRecordingCanvas()
	canvas.imageErr = errors.New("bad image")
	res, err := NewEngine(DefaultMetrics(), nil).Render(canvas, doc)
	require.NoError(t, err)
	assert.False(t, res.PhotoRendered)

	ok := newRecordingCanvas()
	res, err = NewEngine(DefaultMetrics(), nil).Render(ok, doc)
	require.NoError(t, err)
	assert.True(t, res.PhotoRendered)
	assert.Equal(t, 1, ok.images)
}

func TestEngineOptionalSections(t *testing.T) {
	doc := sampleDocument(subjects(4))
	doc.Options.IncludeStatistics = false
	doc.Options.IncludeCertifications = false
	res, err := NewEngine(DefaultMetrics(), nil).Render(newRecordingCanvas(), doc)
	require.NoError(t, err)
	assert.Empty(t, placementsOf(res, UnitStatistics))
	assert.Empty(t, placementsOf(res, UnitCertifications))
}

func TestEngineUnknownScheme(t *testing.T) {
	doc := sampleDocument(subjects(2))
	doc.Options.ColorScheme = "NEON"
	_, err := NewEngine(DefaultMetrics(), nil).Render(newRecordingCanvas(), doc)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnknownOption.Code))
}

func TestEngineTruncatesLongCells(t *testing.T) {
	list := subjects(1)
	list[0].Appreciation = "Excellent travail tout au long du trimestre, continuez ainsi avec la même rigueur"
	canvas := newRecordingCanvas()
	_, err := NewEngine(DefaultMetrics(), nil).Render(canvas, sampleDocument(list))
	require.NoError(t, err)

	found := false
	for _, txt := range canvas.texts {
		if strings.HasPrefix(txt.text, "Excellent") {
			found = true
			assert.True(t, strings.HasSuffix(txt.text, "..."))
			assert.LessOrEqual(t, canvas.TextWidth(txt.text, export.TextStyle{Size: 8.5}), txt.w+1e-6)
		}
	}
	assert.True(t, found)
}
