// Package layout paginates academic documents onto a page canvas.
//
// Every drawable block is an atomic unit: it is placed whole on the current
// page or moved whole to the next one. Subject rows are units too, and a page
// that continues a subject table always repeats the column header first.
package layout

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/locale"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/export"
)

// Metrics are the fixed unit heights in millimetres.
type Metrics struct {
	Margin             float64
	Gap                float64
	PageHeaderHeight   float64
	FooterReserve      float64
	IdentityHeight     float64
	PeriodBandHeight   float64
	ColumnHeaderHeight float64
	RowHeight          float64
	SummaryHeight      float64
	StatLineHeight     float64
	TextLineHeight     float64
	SignatureHeight    float64
	QRSize             float64
	PhotoWidth         float64
	PhotoHeight        float64
}

// DefaultMetrics fits roughly thirty subject rows per A4 page.
func DefaultMetrics() Metrics {
	return Metrics{
		Margin:             12,
		Gap:                3,
		PageHeaderHeight:   22,
		FooterReserve:      8,
		IdentityHeight:     36,
		PeriodBandHeight:   8,
		ColumnHeaderHeight: 7,
		RowHeight:          6.5,
		SummaryHeight:      14,
		StatLineHeight:     6,
		TextLineHeight:     5,
		SignatureHeight:    46,
		QRSize:             28,
		PhotoWidth:         24,
		PhotoHeight:        30,
	}
}

// UnitKind names a placed layout unit.
type UnitKind string

const (
	UnitPageHeader     UnitKind = "PAGE_HEADER"
	UnitPageFooter     UnitKind = "PAGE_FOOTER"
	UnitIdentity       UnitKind = "IDENTITY"
	UnitPeriodBand     UnitKind = "PERIOD_BAND"
	UnitColumnHeader   UnitKind = "COLUMN_HEADER"
	UnitSubjectRow     UnitKind = "SUBJECT_ROW"
	UnitSummary        UnitKind = "SUMMARY"
	UnitStatistics     UnitKind = "STATISTICS"
	UnitCertifications UnitKind = "CERTIFICATIONS"
	UnitSignatures     UnitKind = "SIGNATURES"
)

// Placement records where one unit landed.
type Placement struct {
	Page   int      `json:"page"`
	Kind   UnitKind `json:"kind"`
	Period int      `json:"period"`
	Row    int      `json:"row"`
	Y      float64  `json:"y"`
	Height float64  `json:"height"`
}

// Photo is an already decoded identity photo ready for embedding.
type Photo struct {
	Data []byte
	Type string
}

// Document is everything the engine draws.
type Document struct {
	Snapshot  models.DocumentSnapshot
	Options   models.RenderOptions
	Code      string
	ShortCode string
	VerifyURL string
	IssuedAt  time.Time
	Photo     *Photo
}

// Result summarises a rendering pass.
type Result struct {
	Pages         int
	Placements    []Placement
	PhotoRendered bool
	// ContentTop is the y where the first unit of every page starts.
	ContentTop float64
	// ContentBottom is the lowest y any unit may reach on a page.
	ContentBottom float64
}

// Engine lays documents out on a canvas.
type Engine struct {
	metrics Metrics
	logger  *zap.Logger
}

// NewEngine constructs an engine with the given metrics.
func NewEngine(metrics Metrics, logger *zap.Logger) *Engine {
	if metrics.RowHeight <= 0 {
		metrics = DefaultMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{metrics: metrics, logger: logger}
}

// Metrics exposes the engine metrics.
func (e *Engine) Metrics() Metrics {
	return e.metrics
}

// Render draws doc onto canvas. It fails with LAYOUT_OVERFLOW, before drawing
// anything, when a unit is taller than the usable height of a page.
func (e *Engine) Render(canvas export.Canvas, doc Document) (*Result, error) {
	p, units, err := e.prepare(canvas, doc)
	if err != nil {
		return nil, err
	}

	p.newPage()
	for _, u := range units {
		if err := p.place(u); err != nil {
			return nil, err
		}
	}
	p.result.Pages = p.page
	if doc.Photo != nil && !p.result.PhotoRendered {
		e.logger.Warn("photo not rendered", zap.String("student_id", doc.Snapshot.Student.ID), zap.Error(p.photoErr))
	}
	return p.result, nil
}

// Check reports the errors Render would fail with without drawing anything.
// Unit heights never depend on the verification code, so a document can be
// checked before its code is issued.
func (e *Engine) Check(canvas export.Canvas, doc Document) error {
	_, _, err := e.prepare(canvas, doc)
	return err
}

func (e *Engine) prepare(canvas export.Canvas, doc Document) (*pager, []unit, error) {
	theme, err := ThemeFor(doc.Options.ColorScheme)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnknownOption.Code, appErrors.ErrUnknownOption.Status, "unknown color scheme")
	}
	p := &pager{
		canvas: canvas,
		m:      e.metrics,
		theme:  theme,
		labels: locale.For(doc.Options.Language),
		doc:    doc,
		result: &Result{},
	}
	p.width, p.height = canvas.PageSize()
	p.contentTop = p.m.Margin + p.m.PageHeaderHeight + p.m.Gap
	p.bottom = p.height - p.m.Margin - p.m.FooterReserve
	p.result.ContentTop = p.contentTop
	p.result.ContentBottom = p.bottom

	units := p.plan()
	usable := p.bottom - p.contentTop
	for _, u := range units {
		need := u.height
		if u.continues {
			need += p.m.ColumnHeaderHeight
		}
		if need > usable {
			return nil, nil, appErrors.Clone(appErrors.ErrLayoutOverflow, fmt.Sprintf("%s unit is %.1fmm tall, page allows %.1fmm", u.kind, need, usable))
		}
	}
	return p, units, nil
}

type unit struct {
	kind   UnitKind
	height float64
	period int
	row    int
	// keepWith reserves room for following units so a band never ends a page.
	keepWith float64
	// continues marks subject rows that need the column header after a break.
	continues bool
	draw      func(y float64) error
}

type pager struct {
	canvas     export.Canvas
	m          Metrics
	theme      Theme
	labels     locale.Labels
	doc        Document
	result     *Result
	width      float64
	height     float64
	contentTop float64
	bottom     float64
	y          float64
	page       int
	photoErr   error
}

func (p *pager) newPage() {
	p.canvas.AddPage()
	p.page++
	p.drawPageHeader(p.m.Margin)
	p.record(UnitPageHeader, -1, -1, p.m.Margin, p.m.PageHeaderHeight)
	footerY := p.height - p.m.Margin - p.m.FooterReserve
	p.drawPageFooter(footerY)
	p.record(UnitPageFooter, -1, -1, footerY, p.m.FooterReserve)
	p.y = p.contentTop
}

func (p *pager) fits(h float64) bool {
	return p.y+h <= p.bottom+1e-6
}

func (p *pager) place(u unit) error {
	if !p.fits(u.height + u.keepWith) {
		p.newPage()
		if u.continues {
			header := p.columnHeaderUnit(u.period)
			if err := header.draw(p.y); err != nil {
				return err
			}
			p.record(header.kind, header.period, -1, p.y, header.height)
			p.y += header.height
		}
	}
	if err := u.draw(p.y); err != nil {
		return err
	}
	p.record(u.kind, u.period, u.row, p.y, u.height)
	p.y += u.height
	return nil
}

func (p *pager) record(kind UnitKind, period, row int, y, h float64) {
	p.result.Placements = append(p.result.Placements, Placement{
		Page:   p.page,
		Kind:   kind,
		Period: period,
		Row:    row,
		Y:      y,
		Height: h,
	})
}

// plan lists every unit in drawing order.
func (p *pager) plan() []unit {
	units := []unit{p.identityUnit()}
	for i, period := range p.doc.Snapshot.Periods {
		band := p.periodBandUnit(i, period)
		header := p.columnHeaderUnit(i)
		band.keepWith = header.height + p.m.RowHeight
		header.keepWith = p.m.RowHeight
		units = append(units, band, header)
		for j, subject := range period.Subjects {
			units = append(units, p.subjectRowUnit(i, j, subject))
		}
		units = append(units, p.summaryUnit(i, period))
	}
	if p.doc.Options.IncludeStatistics && p.doc.Snapshot.Statistics != nil {
		units = append(units, p.statisticsUnit(*p.doc.Snapshot.Statistics))
	}
	if p.doc.Options.IncludeCertifications {
		units = append(units, p.certificationsUnit())
	}
	units = append(units, p.signaturesUnit())
	return units
}
