// Package locale holds the display strings of generated documents and
// verification answers. Only labels are localised; document content is not.
package locale

import "github.com/noah-isme/sma-records-api/internal/models"

// Labels is the full set of strings used by one language.
type Labels struct {
	BulletinTitle   string
	TranscriptTitle string
	Continued       string
	Page            string

	Student      string
	Matricule    string
	BornOn       string
	Class        string
	School       string
	AcademicYear string
	Term         string

	Subject      string
	Teacher      string
	Coefficient  string
	Grade        string
	Weighted     string
	Appreciation string

	TermAverage string
	Rank        string
	Decision    string
	Mention     string
	Absences    string

	StatisticsTitle string
	OverallAverage  string
	BestAverage     string
	BestYear        string
	TotalYears      string
	TotalAbsences   string
	Disciplinary    string
	Awards          string
	None            string

	CertificationsTitle string
	CertificationText   string

	Principal string
	Homeroom  string
	Guardian  string
	Seal      string

	VerificationCode  string
	ShortCode         string
	VerifyInstruction string

	Decisions map[models.Decision]string
	Mentions  map[models.Mention]string
	Kinds     map[models.DocumentKind]string

	VerifySuccess string
	VerifyInvalid string
	VerifyExpired string
	VerifyFailure string

	Fields map[string]string
}

var french = Labels{
	BulletinTitle:   "BULLETIN DE NOTES",
	TranscriptTitle: "RELEVÉ DE NOTES",
	Continued:       "(suite)",
	Page:            "Page",

	Student:      "Élève",
	Matricule:    "Matricule",
	BornOn:       "Né(e) le",
	Class:        "Classe",
	School:       "Établissement",
	AcademicYear: "Année scolaire",
	Term:         "Période",

	Subject:      "Matière",
	Teacher:      "Enseignant",
	Coefficient:  "Coef.",
	Grade:        "Note",
	Weighted:     "Note × Coef.",
	Appreciation: "Appréciation",

	TermAverage: "Moyenne",
	Rank:        "Rang",
	Decision:    "Décision",
	Mention:     "Mention",
	Absences:    "Absences",

	StatisticsTitle: "STATISTIQUES GÉNÉRALES",
	OverallAverage:  "Moyenne générale",
	BestAverage:     "Meilleure moyenne",
	BestYear:        "Meilleure année",
	TotalYears:      "Années scolaires",
	TotalAbsences:   "Total des absences",
	Disciplinary:    "Sanctions disciplinaires",
	Awards:          "Distinctions",
	None:            "Aucune",

	CertificationsTitle: "CERTIFICATION",
	CertificationText:   "Le chef d'établissement certifie que les résultats ci-dessus sont conformes aux registres de l'établissement.",

	Principal: "Le Chef d'établissement",
	Homeroom:  "Le Professeur principal",
	Guardian:  "Le Parent / Tuteur",
	Seal:      "Cachet officiel",

	VerificationCode:  "Code de vérification",
	ShortCode:         "Code court",
	VerifyInstruction: "Scannez le code QR ou saisissez le code court pour vérifier ce document.",

	Decisions: map[models.Decision]string{
		models.DecisionPassed:      "Admis(e)",
		models.DecisionRepeat:      "Redouble",
		models.DecisionTransferred: "Transféré(e)",
	},
	Mentions: map[models.Mention]string{
		models.MentionExcellent:    "Excellent",
		models.MentionGood:         "Bien",
		models.MentionFairlyGood:   "Assez bien",
		models.MentionPass:         "Passable",
		models.MentionInsufficient: "Insuffisant",
	},
	Kinds: map[models.DocumentKind]string{
		models.DocumentBulletin:   "Bulletin",
		models.DocumentTranscript: "Relevé de notes",
	},

	VerifySuccess: "Document authentique",
	VerifyInvalid: "Code de vérification invalide : document non authentique",
	VerifyExpired: "Ce code de vérification a expiré",
	VerifyFailure: "Vérification impossible pour le moment",

	Fields: map[string]string{
		"student.name":                   "Nom de l'élève",
		"student.matricule":              "Matricule",
		"student.class":                  "Classe",
		"school.name":                    "Établissement",
		"school.id":                      "Identifiant de l'établissement",
		"academic.term":                  "Période",
		"academic.academicYear":          "Année scolaire",
		"academic.generalAverage":        "Moyenne générale",
		"academic.classRank":             "Rang",
		"academic.totalStudents":         "Effectif",
		"verification.issuedAt":          "Délivré le",
		"verification.approvedAt":        "Approuvé le",
		"verification.verificationCount": "Nombre de vérifications",
		"verification.shortCode":         "Code court",
	},
}

var english = Labels{
	BulletinTitle:   "REPORT CARD",
	TranscriptTitle: "ACADEMIC TRANSCRIPT",
	Continued:       "(continued)",
	Page:            "Page",

	Student:      "Student",
	Matricule:    "Student ID",
	BornOn:       "Born on",
	Class:        "Class",
	School:       "School",
	AcademicYear: "Academic year",
	Term:         "Term",

	Subject:      "Subject",
	Teacher:      "Teacher",
	Coefficient:  "Coef.",
	Grade:        "Grade",
	Weighted:     "Grade × Coef.",
	Appreciation: "Remarks",

	TermAverage: "Average",
	Rank:        "Rank",
	Decision:    "Decision",
	Mention:     "Mention",
	Absences:    "Absences",

	StatisticsTitle: "OVERALL STATISTICS",
	OverallAverage:  "Overall average",
	BestAverage:     "Best average",
	BestYear:        "Best year",
	TotalYears:      "School years",
	TotalAbsences:   "Total absences",
	Disciplinary:    "Disciplinary records",
	Awards:          "Awards",
	None:            "None",

	CertificationsTitle: "CERTIFICATION",
	CertificationText:   "The head of school certifies that the results above match the records of the institution.",

	Principal: "Head of School",
	Homeroom:  "Homeroom Teacher",
	Guardian:  "Parent / Guardian",
	Seal:      "Official seal",

	VerificationCode:  "Verification code",
	ShortCode:         "Short code",
	VerifyInstruction: "Scan the QR code or enter the short code to verify this document.",

	Decisions: map[models.Decision]string{
		models.DecisionPassed:      "Passed",
		models.DecisionRepeat:      "Repeat",
		models.DecisionTransferred: "Transferred",
	},
	Mentions: map[models.Mention]string{
		models.MentionExcellent:    "Excellent",
		models.MentionGood:         "Good",
		models.MentionFairlyGood:   "Fairly good",
		models.MentionPass:         "Pass",
		models.MentionInsufficient: "Insufficient",
	},
	Kinds: map[models.DocumentKind]string{
		models.DocumentBulletin:   "Report card",
		models.DocumentTranscript: "Transcript",
	},

	VerifySuccess: "Document is authentic",
	VerifyInvalid: "Invalid verification code: document is not authentic",
	VerifyExpired: "This verification code has expired",
	VerifyFailure: "Verification is unavailable at the moment",

	Fields: map[string]string{
		"student.name":                   "Student name",
		"student.matricule":              "Student ID",
		"student.class":                  "Class",
		"school.name":                    "School",
		"school.id":                      "School ID",
		"academic.term":                  "Term",
		"academic.academicYear":          "Academic year",
		"academic.generalAverage":        "General average",
		"academic.classRank":             "Class rank",
		"academic.totalStudents":         "Class size",
		"verification.issuedAt":          "Issued at",
		"verification.approvedAt":        "Approved at",
		"verification.verificationCount": "Verification count",
		"verification.shortCode":         "Short code",
	},
}

// For returns the labels of lang, falling back to French.
func For(lang models.Language) Labels {
	switch lang {
	case models.LanguageEN:
		return english
	default:
		return french
	}
}

// Title returns the document title for kind.
func (l Labels) Title(kind models.DocumentKind) string {
	if kind == models.DocumentTranscript {
		return l.TranscriptTitle
	}
	return l.BulletinTitle
}

// DecisionLabel renders a decision, falling back to its raw value.
func (l Labels) DecisionLabel(d models.Decision) string {
	if v, ok := l.Decisions[d]; ok {
		return v
	}
	return string(d)
}

// MentionLabel renders a mention, falling back to its raw value.
func (l Labels) MentionLabel(m models.Mention) string {
	if v, ok := l.Mentions[m]; ok {
		return v
	}
	return string(m)
}
