package models

import "time"

// BatchStatus captures class batch lifecycle states.
type BatchStatus string

const (
	BatchStatusQueued     BatchStatus = "QUEUED"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusFinished   BatchStatus = "FINISHED"
	BatchStatusFailed     BatchStatus = "FAILED"
)

// BatchIssued records one document generated by a batch.
type BatchIssued struct {
	StudentID   string `json:"studentId"`
	Code        string `json:"code"`
	ShortCode   string `json:"shortCode"`
	Rank        int    `json:"rank"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// BatchFailure records one student whose document could not be generated.
type BatchFailure struct {
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

// BatchJob tracks the generation of every bulletin of a class for one term.
type BatchJob struct {
	ID         string         `json:"id"`
	Status     BatchStatus    `json:"status"`
	Total      int            `json:"total"`
	Issued     []BatchIssued  `json:"issued"`
	Failures   []BatchFailure `json:"failures,omitempty"`
	CreatedBy  string         `json:"createdBy"`
	CreatedAt  time.Time      `json:"createdAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}
