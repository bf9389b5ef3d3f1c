package layout

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/export"
)

type column struct {
	fraction float64
	align    export.Align
}

// subject table: subject, teacher, coefficient, grade, weighted, appreciation
var tableColumns = []column{
	{0.28, export.AlignLeft},
	{0.22, export.AlignLeft},
	{0.09, export.AlignCenter},
	{0.13, export.AlignCenter},
	{0.12, export.AlignCenter},
	{0.16, export.AlignLeft},
}

func (p *pager) contentWidth() float64 {
	return p.width - 2*p.m.Margin
}

func (p *pager) style(size float64, bold bool, color export.Color, align export.Align) export.TextStyle {
	return export.TextStyle{Size: size, Bold: bold, Color: color, Align: align}
}

// text draws s truncated with an ellipsis so it never leaves its cell.
func (p *pager) text(x, y, w, h float64, s string, style export.TextStyle) {
	const pad = 1.5
	avail := w - 2*pad
	if avail > 0 && p.canvas.TextWidth(s, style) > avail {
		runes := []rune(s)
		for len(runes) > 0 && p.canvas.TextWidth(string(runes)+"...", style) > avail {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "..."
	}
	p.canvas.Text(x+pad, y, w-2*pad, h, s, style)
}

func (p *pager) drawPageHeader(y float64) {
	m := p.m
	w := p.contentWidth()
	snap := p.doc.Snapshot
	p.canvas.FillRect(m.Margin, y, w, 9, p.theme.Primary)
	p.text(m.Margin, y, w, 9, snap.School.Name, p.style(12, true, p.theme.OnPrimary, export.AlignCenter))
	p.text(m.Margin, y+9, w, 7, p.labels.Title(snap.Kind), p.style(11, true, p.theme.Primary, export.AlignCenter))
	line := fmt.Sprintf("%s: %s  |  %s: %s", p.labels.Student, snap.Student.FullName(), p.labels.Matricule, snap.Student.Matricule)
	if class := studentClass(snap); class != "" {
		line += fmt.Sprintf("  |  %s: %s", p.labels.Class, class)
	}
	p.text(m.Margin, y+16, w, 6, line, p.style(8, false, p.theme.Muted, export.AlignCenter))
}

func (p *pager) drawPageFooter(y float64) {
	m := p.m
	w := p.contentWidth()
	if p.doc.ShortCode != "" {
		p.text(m.Margin, y, w/2, m.FooterReserve, fmt.Sprintf("%s: %s", p.labels.ShortCode, p.doc.ShortCode), p.style(7, false, p.theme.Muted, export.AlignLeft))
	}
	p.text(m.Margin+w/2, y, w/2, m.FooterReserve, fmt.Sprintf("%s %d", p.labels.Page, p.page), p.style(7, false, p.theme.Muted, export.AlignRight))
}

func (p *pager) identityUnit() unit {
	return unit{
		kind:   UnitIdentity,
		height: p.m.IdentityHeight,
		period: -1,
		row:    -1,
		draw: func(y float64) error {
			m := p.m
			w := p.contentWidth()
			snap := p.doc.Snapshot
			p.canvas.FillRect(m.Margin, y, w, m.IdentityHeight-m.Gap, p.theme.Band)

			textWidth := w
			if p.doc.Photo != nil && p.doc.Options.IncludePhoto {
				x := m.Margin + w - m.PhotoWidth - 2
				if err := p.canvas.Image("photo-"+snap.Student.ID, p.doc.Photo.Type, p.doc.Photo.Data, x, y+2, m.PhotoWidth, m.PhotoHeight); err != nil {
					p.photoErr = err
				} else {
					p.result.PhotoRendered = true
				}
				textWidth -= m.PhotoWidth + 4
			}

			left := []string{
				fmt.Sprintf("%s: %s", p.labels.Student, snap.Student.FullName()),
				fmt.Sprintf("%s: %s", p.labels.Matricule, snap.Student.Matricule),
			}
			if snap.Student.BirthDate != nil {
				born := snap.Student.BirthDate.Format("02/01/2006")
				if snap.Student.BirthPlace != "" {
					born += " - " + snap.Student.BirthPlace
				}
				left = append(left, fmt.Sprintf("%s: %s", p.labels.BornOn, born))
			}
			if class := studentClass(snap); class != "" {
				left = append(left, fmt.Sprintf("%s: %s", p.labels.Class, class))
			}
			right := []string{fmt.Sprintf("%s: %s", p.labels.School, snap.School.Name)}
			for _, v := range []string{snap.School.Address, snap.School.Phone, snap.School.Email} {
				if v != "" {
					right = append(right, v)
				}
			}

			half := textWidth / 2
			for i, line := range left {
				p.text(m.Margin, y+2+float64(i)*m.StatLineHeight, half, m.StatLineHeight, line, p.style(9, i == 0, p.theme.Text, export.AlignLeft))
			}
			for i, line := range right {
				p.text(m.Margin+half, y+2+float64(i)*m.StatLineHeight, half, m.StatLineHeight, line, p.style(9, i == 0, p.theme.Text, export.AlignLeft))
			}
			return nil
		},
	}
}

func (p *pager) periodBandUnit(index int, period models.AcademicPeriod) unit {
	return unit{
		kind:   UnitPeriodBand,
		height: p.m.PeriodBandHeight,
		period: index,
		row:    -1,
		draw: func(y float64) error {
			m := p.m
			w := p.contentWidth()
			p.canvas.FillRect(m.Margin, y, w, m.PeriodBandHeight-1, p.theme.Primary)
			label := fmt.Sprintf("%s %s  -  %s  -  %s %s", p.labels.AcademicYear, period.AcademicYear, period.Term, p.labels.Class, period.ClassName)
			p.text(m.Margin, y, w, m.PeriodBandHeight-1, label, p.style(10, true, p.theme.OnPrimary, export.AlignLeft))
			return nil
		},
	}
}

func (p *pager) columnHeaderUnit(index int) unit {
	return unit{
		kind:   UnitColumnHeader,
		height: p.m.ColumnHeaderHeight,
		period: index,
		row:    -1,
		draw: func(y float64) error {
			m := p.m
			titles := []string{p.labels.Subject, p.labels.Teacher, p.labels.Coefficient, p.labels.Grade, p.labels.Weighted, p.labels.Appreciation}
			p.canvas.FillRect(m.Margin, y, p.contentWidth(), m.ColumnHeaderHeight, p.theme.Band)
			x := m.Margin
			for i, col := range tableColumns {
				cw := col.fraction * p.contentWidth()
				p.text(x, y, cw, m.ColumnHeaderHeight, titles[i], p.style(8.5, true, p.theme.Text, col.align))
				x += cw
			}
			return nil
		},
	}
}

func (p *pager) subjectRowUnit(period, row int, subject models.SubjectRecord) unit {
	return unit{
		kind:      UnitSubjectRow,
		height:    p.m.RowHeight,
		period:    period,
		row:       row,
		continues: true,
		draw: func(y float64) error {
			m := p.m
			if row%2 == 1 {
				p.canvas.FillRect(m.Margin, y, p.contentWidth(), m.RowHeight, p.theme.RowAlt)
			}
			cells := []string{
				subject.Name,
				subject.TeacherName,
				formatNumber(subject.Coefficient),
				fmt.Sprintf("%s/%s", formatScore(subject.Grade), formatNumber(subject.MaxScore)),
				formatScore(subject.Grade * subject.Coefficient),
				subject.Appreciation,
			}
			x := m.Margin
			for i, col := range tableColumns {
				cw := col.fraction * p.contentWidth()
				if i == 3 {
					p.canvas.FillRect(x, y, cw, m.RowHeight, p.theme.Fill(BandFor(subject.Grade, subject.MaxScore)))
				}
				p.text(x, y, cw, m.RowHeight, cells[i], p.style(8.5, i == 3, p.theme.Text, col.align))
				x += cw
			}
			return nil
		},
	}
}

func (p *pager) summaryUnit(index int, period models.AcademicPeriod) unit {
	return unit{
		kind:   UnitSummary,
		height: p.m.SummaryHeight,
		period: index,
		row:    -1,
		draw: func(y float64) error {
			m := p.m
			w := p.contentWidth()
			p.canvas.FillRect(m.Margin, y+1, w, m.SummaryHeight-m.Gap, p.theme.Band)
			rank := "-"
			if period.Rank > 0 {
				rank = fmt.Sprintf("%d", period.Rank)
				if period.TotalStudents > 0 {
					rank = fmt.Sprintf("%d / %d", period.Rank, period.TotalStudents)
				}
			}
			first := fmt.Sprintf("%s: %s  |  %s: %s  |  %s: %d", p.labels.TermAverage, formatScore(period.TermAverage), p.labels.Rank, rank, p.labels.Absences, period.Absences)
			second := fmt.Sprintf("%s: %s", p.labels.Decision, p.labels.DecisionLabel(period.Decision))
			if period.Mention != nil {
				second += fmt.Sprintf("  |  %s: %s", p.labels.Mention, p.labels.MentionLabel(*period.Mention))
			}
			if period.CouncilRemark != "" {
				second += "  |  " + period.CouncilRemark
			}
			half := (m.SummaryHeight - m.Gap) / 2
			p.text(m.Margin, y+1, w, half, first, p.style(9, true, p.theme.Text, export.AlignLeft))
			p.text(m.Margin, y+1+half, w, half, second, p.style(9, false, p.theme.Text, export.AlignLeft))
			return nil
		},
	}
}

func (p *pager) statisticsUnit(stats models.OverallStatistics) unit {
	awards := p.labels.None
	if len(stats.Awards) > 0 {
		awards = strings.Join(stats.Awards, ", ")
	}
	lines := [][2]string{
		{fmt.Sprintf("%s: %s", p.labels.OverallAverage, formatScore(stats.OverallAverage)), fmt.Sprintf("%s: %s", p.labels.Mention, p.labels.MentionLabel(stats.OverallMention))},
		{fmt.Sprintf("%s: %s", p.labels.BestAverage, formatScore(stats.BestAverage)), fmt.Sprintf("%s: %s", p.labels.BestYear, stats.BestYear)},
		{fmt.Sprintf("%s: %d", p.labels.TotalYears, stats.TotalYears), fmt.Sprintf("%s: %d", p.labels.TotalAbsences, stats.TotalAbsences)},
		{fmt.Sprintf("%s: %d", p.labels.Disciplinary, stats.DisciplinaryRecords), fmt.Sprintf("%s: %s", p.labels.Awards, awards)},
	}
	height := p.m.PeriodBandHeight + float64(len(lines))*p.m.StatLineHeight + p.m.Gap
	return unit{
		kind:   UnitStatistics,
		height: height,
		period: -1,
		row:    -1,
		draw: func(y float64) error {
			m := p.m
			w := p.contentWidth()
			p.canvas.FillRect(m.Margin, y, w, m.PeriodBandHeight-1, p.theme.Primary)
			p.text(m.Margin, y, w, m.PeriodBandHeight-1, p.labels.StatisticsTitle, p.style(10, true, p.theme.OnPrimary, export.AlignLeft))
			for i, line := range lines {
				ly := y + m.PeriodBandHeight + float64(i)*m.StatLineHeight
				p.text(m.Margin, ly, w/2, m.StatLineHeight, line[0], p.style(9, false, p.theme.Text, export.AlignLeft))
				p.text(m.Margin+w/2, ly, w/2, m.StatLineHeight, line[1], p.style(9, false, p.theme.Text, export.AlignLeft))
			}
			return nil
		},
	}
}

func (p *pager) certificationsUnit() unit {
	style := p.style(9, false, p.theme.Text, export.AlignLeft)
	lines := p.wrap(p.labels.CertificationText, style, p.contentWidth()-3)
	height := p.m.PeriodBandHeight + float64(len(lines))*p.m.TextLineHeight + p.m.Gap
	return unit{
		kind:   UnitCertifications,
		height: height,
		period: -1,
		row:    -1,
		draw: func(y float64) error {
			m := p.m
			w := p.contentWidth()
			p.text(m.Margin, y, w, m.PeriodBandHeight-1, p.labels.CertificationsTitle, p.style(10, true, p.theme.Primary, export.AlignLeft))
			for i, line := range lines {
				p.canvas.Text(m.Margin+1.5, y+m.PeriodBandHeight+float64(i)*m.TextLineHeight, w-3, m.TextLineHeight, line, style)
			}
			return nil
		},
	}
}

func (p *pager) signaturesUnit() unit {
	return unit{
		kind:   UnitSignatures,
		height: p.m.SignatureHeight,
		period: -1,
		row:    -1,
		draw: func(y float64) error {
			m := p.m
			w := p.contentWidth()
			qrBlock := m.QRSize + 4
			sigWidth := (w - qrBlock) / 3
			titles := []string{p.labels.Homeroom, p.labels.Principal, p.labels.Guardian}
			for i, title := range titles {
				x := m.Margin + float64(i)*sigWidth
				p.text(x, y+2, sigWidth, 6, title, p.style(9, true, p.theme.Text, export.AlignCenter))
				p.canvas.FillRect(x+6, y+m.SignatureHeight-14, sigWidth-12, 0.3, p.theme.Muted)
			}
			if p.doc.Snapshot.School.PrincipalName != "" {
				p.text(m.Margin+sigWidth, y+m.SignatureHeight-13, sigWidth, 5, p.doc.Snapshot.School.PrincipalName, p.style(8, false, p.theme.Text, export.AlignCenter))
			}
			if p.doc.Options.OfficialSeal {
				p.text(m.Margin+sigWidth, y+9, sigWidth, 5, "["+p.labels.Seal+"]", p.style(8, false, p.theme.Muted, export.AlignCenter))
			}
			if !p.doc.IssuedAt.IsZero() {
				p.text(m.Margin, y+m.SignatureHeight-9, w-qrBlock, 5, p.doc.IssuedAt.UTC().Format("02/01/2006 15:04 MST"), p.style(7.5, false, p.theme.Muted, export.AlignLeft))
			}

			qrX := m.Margin + w - m.QRSize
			if p.doc.VerifyURL != "" {
				if err := p.canvas.QRCode(p.doc.VerifyURL, qrX, y+2, m.QRSize); err != nil {
					return fmt.Errorf("verification qr: %w", err)
				}
			}
			p.text(m.Margin, y+m.SignatureHeight-5, w, 5, fmt.Sprintf("%s: %s  |  %s: %s", p.labels.VerificationCode, p.doc.Code, p.labels.ShortCode, p.doc.ShortCode), p.style(7.5, true, p.theme.Text, export.AlignLeft))
			hint := p.style(6, false, p.theme.Muted, export.AlignRight)
			for i, line := range p.wrap(p.labels.VerifyInstruction, hint, m.QRSize+17) {
				if i == 3 {
					break
				}
				p.canvas.Text(qrX-20, y+m.QRSize+2+float64(i)*3, m.QRSize+20, 3, line, hint)
			}
			return nil
		},
	}
}

// wrap splits text into lines no wider than width.
func (p *pager) wrap(text string, style export.TextStyle, width float64) []string {
	words := strings.Fields(text)
	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && p.canvas.TextWidth(candidate, style) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func studentClass(snap models.DocumentSnapshot) string {
	if n := len(snap.Periods); n > 0 {
		return snap.Periods[n-1].ClassName
	}
	return snap.Student.ClassName
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
