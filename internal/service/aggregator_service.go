package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

// MentionThresholds are the lower bounds (inclusive) of each mention on the grading scale.
type MentionThresholds struct {
	Excellent  float64
	Good       float64
	FairlyGood float64
	Pass       float64
}

// AggregatorConfig tunes the grading scale and mention mapping.
type AggregatorConfig struct {
	Scale      float64
	Thresholds MentionThresholds
}

// DefaultAggregatorConfig is the /20 scale with the usual council thresholds.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Scale:      20,
		Thresholds: MentionThresholds{Excellent: 16, Good: 14, FairlyGood: 12, Pass: 10},
	}
}

// AggregatorService turns raw subject records into period results and history statistics.
type AggregatorService struct {
	cfg    AggregatorConfig
	logger *zap.Logger
}

// NewAggregatorService constructs the aggregator.
func NewAggregatorService(cfg AggregatorConfig, logger *zap.Logger) *AggregatorService {
	if cfg.Scale <= 0 {
		cfg = DefaultAggregatorConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregatorService{cfg: cfg, logger: logger}
}

// Scale exposes the grading scale averages are expressed on.
func (s *AggregatorService) Scale() float64 {
	return s.cfg.Scale
}

// WeightedAverage computes sum(grade*coef)/sum(coef) on the grading scale,
// rounded half-up to two decimals. Grades out of another maximum are
// normalised onto the scale first.
func (s *AggregatorService) WeightedAverage(subjects []models.SubjectRecord) (float64, error) {
	if len(subjects) == 0 {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "at least one subject is required")
	}
	var weighted, coefficients float64
	for _, subject := range subjects {
		if err := s.validateSubject(subject); err != nil {
			return 0, err
		}
		grade := subject.Grade
		if max := s.maxScore(subject); max != s.cfg.Scale {
			grade = grade * s.cfg.Scale / max
		}
		weighted += grade * subject.Coefficient
		coefficients += subject.Coefficient
	}
	average := weighted / coefficients
	if math.IsInf(weighted, 0) || math.IsInf(coefficients, 0) || math.IsNaN(average) || math.IsInf(average, 0) {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "coefficients are too large to average")
	}
	return roundHalfUp(average, 2), nil
}

// Mention maps an average on the grading scale to its label.
func (s *AggregatorService) Mention(average float64) models.Mention {
	t := s.cfg.Thresholds
	switch {
	case average >= t.Excellent:
		return models.MentionExcellent
	case average >= t.Good:
		return models.MentionGood
	case average >= t.FairlyGood:
		return models.MentionFairlyGood
	case average >= t.Pass:
		return models.MentionPass
	default:
		return models.MentionInsufficient
	}
}

// ComputePeriod produces the AcademicPeriod for one student. When classmates
// are supplied the rank is computed among them plus the student; otherwise the
// caller's rank and class size are validated and kept.
func (s *AggregatorService) ComputePeriod(studentID, surname string, in models.PeriodInput) (models.AcademicPeriod, error) {
	if !in.Decision.Valid() {
		return models.AcademicPeriod{}, appErrors.Clone(appErrors.ErrInvalidDecision, fmt.Sprintf("unknown decision %q for %s %s", in.Decision, in.AcademicYear, in.Term))
	}
	subjects := make([]models.SubjectRecord, len(in.Subjects))
	for i, subject := range in.Subjects {
		subject.MaxScore = s.maxScore(subject)
		subjects[i] = subject
	}
	average, err := s.WeightedAverage(subjects)
	if err != nil {
		return models.AcademicPeriod{}, err
	}

	rank, total := in.Rank, in.TotalStudents
	if len(in.Classmates) > 0 {
		entries := make([]models.ClassmateAverage, 0, len(in.Classmates)+1)
		for _, mate := range in.Classmates {
			if mate.StudentID != studentID {
				entries = append(entries, mate)
			}
		}
		entries = append(entries, models.ClassmateAverage{StudentID: studentID, Surname: surname, Average: average})
		for _, ranked := range s.RankClass(entries) {
			if ranked.StudentID == studentID {
				rank = ranked.Rank
			}
		}
		total = len(entries)
	}
	if rank < 0 || total < 0 || (rank > 0 && total > 0 && rank > total) {
		return models.AcademicPeriod{}, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("rank %d out of %d students", rank, total))
	}

	mention := s.Mention(average)
	return models.AcademicPeriod{
		AcademicYear:        in.AcademicYear,
		ClassName:           in.ClassName,
		Term:                in.Term,
		Subjects:            subjects,
		TermAverage:         average,
		Rank:                rank,
		TotalStudents:       total,
		Decision:            in.Decision,
		Mention:             &mention,
		Absences:            in.Absences,
		DisciplinaryRecords: in.DisciplinaryRecords,
		Awards:              append([]string(nil), in.Awards...),
		CouncilRemark:       in.CouncilRemark,
	}, nil
}

// RankClass assigns competition ranks: tied averages share a rank and the next
// distinct average skips by the tie count (1, 2, 2, 4). The returned slice is
// in display order, ties ordered by surname ascending then student id.
func (s *AggregatorService) RankClass(entries []models.ClassmateAverage) []models.RankedStudent {
	ranked := make([]models.RankedStudent, len(entries))
	for i, entry := range entries {
		ranked[i] = models.RankedStudent{
			StudentID: entry.StudentID,
			Surname:   entry.Surname,
			Average:   roundHalfUp(entry.Average, 2),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Average != ranked[j].Average {
			return ranked[i].Average > ranked[j].Average
		}
		si, sj := strings.ToLower(ranked[i].Surname), strings.ToLower(ranked[j].Surname)
		if si != sj {
			return si < sj
		}
		return ranked[i].StudentID < ranked[j].StudentID
	})
	for i := range ranked {
		if i > 0 && ranked[i].Average == ranked[i-1].Average {
			ranked[i].Rank = ranked[i-1].Rank
			continue
		}
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Overall folds an ordered period history into OverallStatistics. Each period
// counts once in the overall average regardless of its subject count.
func (s *AggregatorService) Overall(periods []models.AcademicPeriod) (*models.OverallStatistics, error) {
	if len(periods) == 0 {
		return nil, appErrors.ErrEmptyHistory
	}
	stats := &models.OverallStatistics{Awards: []string{}}
	years := make(map[string]struct{}, len(periods))
	seenAwards := make(map[string]struct{})
	var sum float64
	for i, period := range periods {
		years[period.AcademicYear] = struct{}{}
		sum += period.TermAverage
		if i == 0 || period.TermAverage > stats.BestAverage {
			stats.BestAverage = period.TermAverage
			stats.BestYear = period.AcademicYear
		}
		stats.TotalAbsences += period.Absences
		stats.DisciplinaryRecords += period.DisciplinaryRecords
		for _, award := range period.Awards {
			if _, dup := seenAwards[award]; dup {
				continue
			}
			seenAwards[award] = struct{}{}
			stats.Awards = append(stats.Awards, award)
		}
	}
	stats.TotalYears = len(years)
	stats.OverallAverage = roundHalfUp(sum/float64(len(periods)), 2)
	stats.OverallMention = s.Mention(stats.OverallAverage)
	return stats, nil
}

func (s *AggregatorService) validateSubject(subject models.SubjectRecord) error {
	if strings.TrimSpace(subject.Name) == "" {
		return appErrors.Clone(appErrors.ErrInvalidInput, "subject name is required")
	}
	if subject.Coefficient <= 0 || math.IsNaN(subject.Coefficient) || math.IsInf(subject.Coefficient, 0) {
		return appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("coefficient for %s must be positive", subject.Name))
	}
	max := s.maxScore(subject)
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("max score for %s must be positive", subject.Name))
	}
	if subject.Grade < 0 || subject.Grade > max || math.IsNaN(subject.Grade) {
		return appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("grade for %s must be within [0, %g]", subject.Name, max))
	}
	return nil
}

func (s *AggregatorService) maxScore(subject models.SubjectRecord) float64 {
	if subject.MaxScore == 0 {
		return s.cfg.Scale
	}
	return subject.MaxScore
}

// roundHalfUp rounds non-negative values half away from zero. The epsilon
// absorbs binary representation error such as 16.055 stored as 16.05499...
func roundHalfUp(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(v*p+0.5+1e-9) / p
}
