package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-assessment-api/internal/middleware"
	"github.com/noah-isme/talent-assessment-api/internal/models"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/response"
)

const warningIncompleteAnswers = "incomplete_answer_set"

type accessValidator interface {
	Validate(ctx context.Context, accessToken string) (*models.PublicAssessment, error)
}

type answerSubmitter interface {
	Submit(ctx context.Context, accessToken string, req models.SubmitAnswersRequest) (*models.SubmissionResult, error)
}

// AssessmentHandler serves the public questionnaire links.
type AssessmentHandler struct {
	access accessValidator
	submit answerSubmitter
}

// NewAssessmentHandler constructs the public assessment handler.
func NewAssessmentHandler(access accessValidator, submit answerSubmitter) *AssessmentHandler {
	return &AssessmentHandler{access: access, submit: submit}
}

// Validate godoc
// @Summary Open an assessment link
// @Description Returns the questionnaire for a token. The first call marks the response as started.
// @Tags Public
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /public/assessments/{token} [get]
func (h *AssessmentHandler) Validate(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrTokenNotFound, ""))
		return
	}
	view, err := h.access.Validate(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Submit godoc
// @Summary Submit answers
// @Description Scores the answers and completes the response. Only the first submission is accepted.
// @Tags Public
// @Accept json
// @Produce json
// @Param token path string true "Access token"
// @Param payload body models.SubmitAnswersRequest true "Answers"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /public/assessments/{token}/submit [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrTokenNotFound, ""))
		return
	}
	var req models.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answers payload"))
		return
	}
	result, err := h.submit.Submit(c.Request.Context(), token, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Missing) > 0 {
		middleware.AddWarning(c, warningIncompleteAnswers)
		middleware.AddMeta(c, "neutral_filled", result.Missing)
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}
