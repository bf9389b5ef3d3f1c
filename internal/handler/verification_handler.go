package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type verificationService interface {
	Verify(ctx context.Context, code string, lang models.Language) (*dto.VerifyResponse, error)
	FailureResponse(lang models.Language, err error) *dto.VerifyResponse
}

var verifyLanguages = language.NewMatcher([]language.Tag{language.French, language.English})

// VerificationHandler answers public authenticity checks.
type VerificationHandler struct {
	service         verificationService
	defaultLanguage models.Language
}

// NewVerificationHandler constructs the handler.
func NewVerificationHandler(service verificationService, defaultLanguage models.Language) *VerificationHandler {
	if defaultLanguage == "" {
		defaultLanguage = models.LanguageFR
	}
	return &VerificationHandler{service: service, defaultLanguage: defaultLanguage}
}

// Verify godoc
// @Summary Verify an issued document
// @Description Public lookup by long code or short code. The body is the typed result for every outcome.
// @Tags Verification
// @Produce json
// @Param code query string true "Verification code or short code"
// @Param language query string false "fr or en"
// @Success 200 {object} dto.VerifyResponse
// @Failure 404 {object} dto.VerifyResponse
// @Failure 410 {object} dto.VerifyResponse
// @Router /verify [get]
func (h *VerificationHandler) Verify(c *gin.Context) {
	lang := h.language(c)
	c.Header("Cache-Control", "no-store")

	result, err := h.service.Verify(c.Request.Context(), c.Query("code"), lang)
	if err != nil {
		c.JSON(appErrors.FromError(err).Status, h.service.FailureResponse(lang, err))
		return
	}
	c.JSON(verifyStatus(result), result)
}

func verifyStatus(result *dto.VerifyResponse) int {
	switch result.ErrorCode {
	case "":
		return http.StatusOK
	case appErrors.ErrExpired.Code:
		return appErrors.ErrExpired.Status
	case appErrors.ErrInvalidCode.Code:
		return appErrors.ErrInvalidCode.Status
	default:
		return http.StatusBadRequest
	}
}

// language prefers the explicit query parameter and falls back to Accept-Language.
func (h *VerificationHandler) language(c *gin.Context) models.Language {
	if raw := c.Query("language"); raw != "" {
		if lang, err := models.ParseLanguage(raw); err == nil {
			return lang
		}
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return h.defaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return h.defaultLanguage
	}
	_, index, confidence := verifyLanguages.Match(tags...)
	if confidence == language.No {
		return h.defaultLanguage
	}
	if index == 1 {
		return models.LanguageEN
	}
	return models.LanguageFR
}
