package dto

import (
	"time"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// VerifyResponse is the public answer of GET /verify for every outcome.
type VerifyResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	MessageFr string      `json:"messageFr,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Data      *VerifyData `json:"data,omitempty"`
}

// VerifyData is the frozen content of a verified document.
type VerifyData struct {
	Student      VerifyStudent           `json:"student"`
	School       VerifySchool            `json:"school"`
	Academic     VerifyAcademic          `json:"academic"`
	Verification VerifyMeta              `json:"verification"`
	Periods      []models.AcademicPeriod `json:"periods"`
	Labels       map[string]string       `json:"labels"`
}

// VerifyStudent identifies the document holder.
type VerifyStudent struct {
	Name      string `json:"name"`
	Matricule string `json:"matricule"`
	Class     string `json:"class"`
}

// VerifySchool identifies the issuing school.
type VerifySchool struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// VerifyAcademic is the headline result printed on the document.
type VerifyAcademic struct {
	Term           string  `json:"term"`
	AcademicYear   string  `json:"academicYear"`
	GeneralAverage float64 `json:"generalAverage"`
	ClassRank      int     `json:"classRank"`
	TotalStudents  int     `json:"totalStudents"`
}

// VerifyMeta describes the verification record itself.
type VerifyMeta struct {
	Kind              models.DocumentKind `json:"kind"`
	IssuedAt          time.Time           `json:"issuedAt"`
	ApprovedAt        *time.Time          `json:"approvedAt,omitempty"`
	VerificationCount int64               `json:"verificationCount"`
	ShortCode         string              `json:"shortCode"`
}
