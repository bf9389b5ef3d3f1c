package models

// Decision is the end-of-period outcome supplied by the class council.
type Decision string

const (
	DecisionPassed      Decision = "PASSED"
	DecisionRepeat      Decision = "REPEAT"
	DecisionTransferred Decision = "TRANSFERRED"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionPassed, DecisionRepeat, DecisionTransferred:
		return true
	default:
		return false
	}
}

// Mention is the qualitative label derived from an average.
type Mention string

const (
	MentionExcellent    Mention = "EXCELLENT"
	MentionGood         Mention = "GOOD"
	MentionFairlyGood   Mention = "FAIRLY_GOOD"
	MentionPass         Mention = "PASS"
	MentionInsufficient Mention = "INSUFFICIENT"
)

// SubjectRecord is one graded subject for a (student, period).
type SubjectRecord struct {
	Name         string  `json:"name" validate:"required"`
	TeacherName  string  `json:"teacherName,omitempty"`
	Coefficient  float64 `json:"coefficient"`
	Grade        float64 `json:"grade"`
	MaxScore     float64 `json:"maxScore"`
	Appreciation string  `json:"appreciation,omitempty"`
}

// ClassmateAverage is another student's period average used for ranking.
type ClassmateAverage struct {
	StudentID string  `json:"studentId" validate:"required"`
	Surname   string  `json:"surname"`
	Average   float64 `json:"average"`
}

// PeriodInput is the raw material for one period as supplied by the caller.
type PeriodInput struct {
	AcademicYear        string             `json:"academicYear" validate:"required"`
	ClassName           string             `json:"className" validate:"required"`
	Term                string             `json:"term" validate:"required"`
	Subjects            []SubjectRecord    `json:"subjects"`
	Decision            Decision           `json:"decision"`
	Rank                int                `json:"rank,omitempty"`
	TotalStudents       int                `json:"totalStudents,omitempty"`
	Classmates          []ClassmateAverage `json:"classmates,omitempty"`
	Absences            int                `json:"absences,omitempty"`
	DisciplinaryRecords int                `json:"disciplinaryRecords,omitempty"`
	Awards              []string           `json:"awards,omitempty"`
	CouncilRemark       string             `json:"councilRemark,omitempty"`
}

// AcademicPeriod is the computed result for one (student, term). Values are
// never mutated after computation; a recomputation yields a new value.
type AcademicPeriod struct {
	AcademicYear        string          `json:"academicYear"`
	ClassName           string          `json:"className"`
	Term                string          `json:"term"`
	Subjects            []SubjectRecord `json:"subjects"`
	TermAverage         float64         `json:"termAverage"`
	Rank                int             `json:"rank"`
	TotalStudents       int             `json:"totalStudents"`
	Decision            Decision        `json:"decision"`
	Mention             *Mention        `json:"mention,omitempty"`
	Absences            int             `json:"absences"`
	DisciplinaryRecords int             `json:"disciplinaryRecords"`
	Awards              []string        `json:"awards,omitempty"`
	CouncilRemark       string          `json:"councilRemark,omitempty"`
}

// OverallStatistics folds every period of a student's history.
type OverallStatistics struct {
	TotalYears          int      `json:"totalYears"`
	OverallAverage      float64  `json:"overallAverage"`
	BestAverage         float64  `json:"bestAverage"`
	BestYear            string   `json:"bestYear"`
	TotalAbsences       int      `json:"totalAbsences"`
	DisciplinaryRecords int      `json:"disciplinaryRecords"`
	Awards              []string `json:"awards"`
	OverallMention      Mention  `json:"overallMention"`
}

// RankedStudent is one entry of a class ranking.
type RankedStudent struct {
	StudentID string  `json:"studentId"`
	Surname   string  `json:"surname"`
	Average   float64 `json:"average"`
	Rank      int     `json:"rank"`
}
