package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/middleware"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/service"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/response"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

const maxRequestBytes = 4 << 20

type documentService interface {
	Generate(ctx context.Context, req dto.GenerateDocumentRequest) (*service.GeneratedDocument, error)
	ExportCSV(req dto.GenerateDocumentRequest) ([]byte, string, error)
	Download(token string) (*service.DocumentDownload, error)
}

type batchService interface {
	Submit(ctx context.Context, req dto.BatchGenerateRequest, actorID string) (*dto.BatchJobResponse, error)
	Status(ctx context.Context, id, actorID string, role models.UserRole) (*models.BatchJob, error)
}

type documentIndex interface {
	Refresh(ctx context.Context) (int, error)
	List() []storage.IndexEntry
	RefreshedAt() time.Time
}

// DocumentHandler exposes document generation endpoints for staff.
type DocumentHandler struct {
	documents documentService
	batches   batchService
	index     documentIndex
	validator *validator.Validate
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(documents documentService, batches batchService, index documentIndex, validate *validator.Validate) *DocumentHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &DocumentHandler{documents: documents, batches: batches, index: index, validator: validate}
}

// Generate godoc
// @Summary Generate a bulletin or transcript
// @Description Returns the PDF inline when the client accepts application/pdf, otherwise JSON metadata with a signed download URL.
// @Tags Documents
// @Accept json
// @Produce json,application/pdf
// @Param payload body dto.GenerateDocumentRequest true "Student history and rendering options"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Generate(c *gin.Context) {
	var req dto.GenerateDocumentRequest
	if err := h.decode(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.documents.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if strings.Contains(c.GetHeader("Accept"), "application/pdf") {
		c.Header("X-Verification-Code", doc.Record.Code)
		c.Header("X-Verification-Short-Code", doc.Record.ShortCode)
		response.File(c, http.StatusCreated, response.Inline, pdfName(doc), "application/pdf", doc.PDF)
		return
	}
	response.Created(c, doc.Response())
}

// ExportCSV godoc
// @Summary Export the aggregated history as CSV
// @Tags Documents
// @Accept json
// @Produce text/csv
// @Param payload body dto.GenerateDocumentRequest true "Student history"
// @Success 200 {file} binary
// @Router /documents/csv [post]
func (h *DocumentHandler) ExportCSV(c *gin.Context) {
	var req dto.GenerateDocumentRequest
	if err := h.decode(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	data, name, err := h.documents.ExportCSV(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, http.StatusOK, response.Attachment, name, "text/csv; charset=utf-8", data)
}

// Download godoc
// @Summary Download a stored document via signed token
// @Tags Documents
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /documents/download/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Param("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.documents.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat document"))
		return
	}
	response.Stream(c, result.Filename, "application/pdf", info.Size(), result.File, map[string]string{
		"X-Link-Expires-At": result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ListIndex godoc
// @Summary List stored documents from the last index refresh
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) ListIndex(c *gin.Context) {
	resp := dto.DocumentIndexResponse{Documents: h.index.List()}
	if at := h.index.RefreshedAt(); !at.IsZero() {
		resp.RefreshedAt = &at
	}
	response.JSON(c, http.StatusOK, resp, map[string]interface{}{"count": len(resp.Documents)})
}

// RefreshIndex godoc
// @Summary Rescan the document storage directory
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /documents/index/refresh [post]
func (h *DocumentHandler) RefreshIndex(c *gin.Context) {
	count, err := h.index.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh document index"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count, "refreshedAt": h.index.RefreshedAt()})
}

// SubmitBatch godoc
// @Summary Generate every bulletin of a class for one term
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.BatchGenerateRequest true "Class grades"
// @Success 202 {object} response.Envelope
// @Router /documents/batch [post]
func (h *DocumentHandler) SubmitBatch(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BatchGenerateRequest
	if err := h.decode(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	job, err := h.batches.Submit(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// BatchStatus godoc
// @Summary Class batch progress
// @Tags Documents
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /documents/batch/{id} [get]
func (h *DocumentHandler) BatchStatus(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.batches.Status(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, map[string]interface{}{
		"issued":   strconv.Itoa(len(job.Issued)),
		"failures": strconv.Itoa(len(job.Failures)),
	})
}

// decode rejects unknown keys so a misspelled option never falls back to a default.
func (h *DocumentHandler) decode(c *gin.Context, dest interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(c.Request.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return appErrors.Wrap(err, appErrors.ErrUnknownOption.Code, appErrors.ErrUnknownOption.Status, err.Error())
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("field %s has the wrong type", typeErr.Field))
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if err := h.validator.Struct(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return nil
}

func pdfName(doc *service.GeneratedDocument) string {
	if doc.FileName != "" {
		if idx := strings.LastIndex(doc.FileName, "/"); idx >= 0 {
			return doc.FileName[idx+1:]
		}
		return doc.FileName
	}
	return strings.ToLower(string(doc.Record.Kind)) + "-" + doc.Record.ShortCode + ".pdf"
}
