package layout

import (
	"fmt"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/export"
)

// Theme is the palette for one color scheme.
type Theme struct {
	Primary   export.Color
	OnPrimary export.Color
	Band      export.Color
	Text      export.Color
	Muted     export.Color
	RowAlt    export.Color
	Strong    export.Color
	Good      export.Color
	Average   export.Color
	Weak      export.Color
}

// ThemeFor maps every ColorScheme to its palette. Unknown schemes are an error.
func ThemeFor(scheme models.ColorScheme) (Theme, error) {
	switch scheme {
	case models.SchemeOfficial:
		return Theme{
			Primary:   export.Color{R: 22, G: 52, B: 104},
			OnPrimary: export.Color{R: 255, G: 255, B: 255},
			Band:      export.Color{R: 220, G: 228, B: 242},
			Text:      export.Color{R: 25, G: 25, B: 25},
			Muted:     export.Color{R: 110, G: 110, B: 110},
			RowAlt:    export.Color{R: 246, G: 248, B: 252},
			Strong:    export.Color{R: 200, G: 235, B: 205},
			Good:      export.Color{R: 220, G: 236, B: 250},
			Average:   export.Color{R: 252, G: 240, B: 200},
			Weak:      export.Color{R: 248, G: 212, B: 212},
		}, nil
	case models.SchemeModern:
		return Theme{
			Primary:   export.Color{R: 0, G: 121, B: 107},
			OnPrimary: export.Color{R: 255, G: 255, B: 255},
			Band:      export.Color{R: 214, G: 240, B: 236},
			Text:      export.Color{R: 33, G: 33, B: 33},
			Muted:     export.Color{R: 117, G: 117, B: 117},
			RowAlt:    export.Color{R: 245, G: 250, B: 249},
			Strong:    export.Color{R: 178, G: 223, B: 219},
			Good:      export.Color{R: 207, G: 232, B: 252},
			Average:   export.Color{R: 255, G: 236, B: 179},
			Weak:      export.Color{R: 255, G: 205, B: 210},
		}, nil
	case models.SchemeClassic:
		return Theme{
			Primary:   export.Color{R: 60, G: 60, B: 60},
			OnPrimary: export.Color{R: 255, G: 255, B: 255},
			Band:      export.Color{R: 230, G: 230, B: 230},
			Text:      export.Color{R: 0, G: 0, B: 0},
			Muted:     export.Color{R: 100, G: 100, B: 100},
			RowAlt:    export.Color{R: 248, G: 248, B: 248},
			Strong:    export.Color{R: 215, G: 215, B: 215},
			Good:      export.Color{R: 228, G: 228, B: 228},
			Average:   export.Color{R: 240, G: 240, B: 240},
			Weak:      export.Color{R: 250, G: 250, B: 250},
		}, nil
	default:
		return Theme{}, fmt.Errorf("unknown color scheme %q", scheme)
	}
}

// GradeBand is the rendering hint for a grade cell.
type GradeBand int

const (
	BandWeak GradeBand = iota
	BandAverage
	BandGood
	BandStrong
)

// BandFor classifies grade by its percentage of maxScore.
func BandFor(grade, maxScore float64) GradeBand {
	if maxScore <= 0 {
		return BandWeak
	}
	pct := grade / maxScore * 100
	switch {
	case pct >= 75:
		return BandStrong
	case pct >= 60:
		return BandGood
	case pct >= 50:
		return BandAverage
	default:
		return BandWeak
	}
}

// Fill returns the cell color of band.
func (t Theme) Fill(band GradeBand) export.Color {
	switch band {
	case BandStrong:
		return t.Strong
	case BandGood:
		return t.Good
	case BandAverage:
		return t.Average
	default:
		return t.Weak
	}
}
