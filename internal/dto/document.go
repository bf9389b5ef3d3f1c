package dto

import (
	"time"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

// GenerateDocumentRequest carries everything needed to compile one student's document.
type GenerateDocumentRequest struct {
	Kind    models.DocumentKind    `json:"kind" validate:"omitempty,oneof=BULLETIN TRANSCRIPT"`
	Student models.StudentIdentity `json:"student"`
	School  models.SchoolIdentity  `json:"school"`
	Periods []models.PeriodInput   `json:"periods" validate:"dive"`
	Options models.RenderOptions   `json:"options"`
}

// GenerateDocumentResponse describes an issued document.
type GenerateDocumentResponse struct {
	DocumentID        string              `json:"documentId"`
	Kind              models.DocumentKind `json:"kind"`
	Code              string              `json:"code"`
	ShortCode         string              `json:"shortCode"`
	VerifyURL         string              `json:"verifyUrl"`
	IssuedAt          time.Time           `json:"issuedAt"`
	ApprovedAt        *time.Time          `json:"approvedAt,omitempty"`
	ExpiresAt         *time.Time          `json:"expiresAt,omitempty"`
	Pages             int                 `json:"pages"`
	PhotoRendered     bool                `json:"photoRendered"`
	FileName          string              `json:"fileName"`
	SizeBytes         int                 `json:"sizeBytes"`
	DownloadURL       string              `json:"downloadUrl"`
	DownloadExpiresAt time.Time           `json:"downloadExpiresAt"`
}

// BatchStudent is one student's raw grades inside a class batch.
type BatchStudent struct {
	Student             models.StudentIdentity `json:"student"`
	Subjects            []models.SubjectRecord `json:"subjects" validate:"required,min=1"`
	Decision            models.Decision        `json:"decision" validate:"required"`
	Absences            int                    `json:"absences,omitempty"`
	DisciplinaryRecords int                    `json:"disciplinaryRecords,omitempty"`
	Awards              []string               `json:"awards,omitempty"`
	CouncilRemark       string                 `json:"councilRemark,omitempty"`
}

// BatchGenerateRequest asks for one bulletin per student of a class for one term.
type BatchGenerateRequest struct {
	School       models.SchoolIdentity `json:"school"`
	AcademicYear string                `json:"academicYear" validate:"required"`
	ClassName    string                `json:"className" validate:"required"`
	Term         string                `json:"term" validate:"required"`
	Students     []BatchStudent        `json:"students" validate:"required,min=1,dive"`
	Options      models.RenderOptions  `json:"options"`
}

// BatchJobResponse is returned when a batch is accepted.
type BatchJobResponse struct {
	ID     string             `json:"id"`
	Status models.BatchStatus `json:"status"`
	Total  int                `json:"total"`
}

// DocumentIndexResponse lists stored documents.
type DocumentIndexResponse struct {
	RefreshedAt *time.Time           `json:"refreshedAt,omitempty"`
	Documents   []storage.IndexEntry `json:"documents"`
}
