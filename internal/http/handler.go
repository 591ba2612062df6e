// Package http provides the Gin handlers and router for the response service.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/protomforms/response-service/internal/domain/dto"
	"github.com/protomforms/response-service/internal/sequence"
	"github.com/protomforms/response-service/internal/service"
)

// UserIDHeader carries the caller identity resolved by the session layer in
// front of this service.
const UserIDHeader = "X-User-ID"

// Handler provides HTTP handlers for response submission and lookup.
type Handler struct {
	ingestion *service.IngestionService
}

// NewHandler creates a new Handler instance.
func NewHandler(ingestion *service.IngestionService) *Handler {
	return &Handler{ingestion: ingestion}
}

// SubmitResponse handles POST /api/forms/:id/responses requests.
//
// @Summary      Submit a form response
// @Description  Validates the submission against the form's rules, assigns the next progressive number, and persists the response. Anonymous forms accept submissions without a user.
// @Tags         Responses
// @Accept       json
// @Produce      json
// @Param        id path string true "Form ID"
// @Param        X-User-ID header string false "Authenticated user ID (required for non-anonymous forms)"
// @Param        request body dto.SubmitResponseRequest true "Answers keyed by question ID"
// @Success      201 {object} dto.SuccessResponse "Submission accepted"
// @Failure      400 {object} dto.ErrorResponse "Invalid answers"
// @Failure      401 {object} dto.ErrorResponse "User required"
// @Failure      403 {object} dto.ErrorResponse "Form not open"
// @Failure      404 {object} dto.ErrorResponse "Form not found"
// @Failure      409 {object} dto.ErrorResponse "Already submitted"
// @Failure      503 {object} dto.ErrorResponse "Allocation failed"
// @Router       /api/forms/{id}/responses [post]
func (h *Handler) SubmitResponse(c *gin.Context) {
	builder := NewResponseBuilder(c)

	var req dto.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		builder.Error(http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		builder.Error(http.StatusBadRequest, err.Error(), err)
		return
	}

	formID := c.Param("id")
	userID := c.GetHeader(UserIDHeader)

	result, err := h.ingestion.Submit(c.Request.Context(), formID, userID, req.Answers)
	if err != nil {
		status, message := submissionStatus(err)
		builder.Error(status, message, err)
		return
	}

	builder.SuccessCreated(result)
}

// GetResponseByProgressive handles GET /api/forms/:id/responses/:progressive.
//
// @Summary      Look up a response by progressive number
// @Tags         Responses
// @Produce      json
// @Param        id path string true "Form ID"
// @Param        progressive path int true "Progressive number"
// @Success      200 {object} dto.SuccessResponse
// @Failure      404 {object} dto.ErrorResponse "Form or response not found"
// @Router       /api/forms/{id}/responses/{progressive} [get]
func (h *Handler) GetResponseByProgressive(c *gin.Context) {
	builder := NewResponseBuilder(c)

	progressive, err := strconv.ParseInt(c.Param("progressive"), 10, 64)
	if err != nil || progressive < 1 {
		builder.Error(http.StatusBadRequest, "Invalid progressive number", err)
		return
	}

	response, err := h.ingestion.Lookup(c.Request.Context(), c.Param("id"), progressive)
	if err != nil {
		status, message := submissionStatus(err)
		builder.Error(status, message, err)
		return
	}

	builder.SuccessOK(response)
}

// PublishForm handles POST /api/forms/:id/publish.
//
// @Summary      Publish a form
// @Tags         Forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      200 {object} dto.SuccessResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /api/forms/{id}/publish [post]
func (h *Handler) PublishForm(c *gin.Context) {
	h.lifecycle(c, h.ingestion.PublishForm)
}

// ArchiveForm handles POST /api/forms/:id/archive.
//
// @Summary      Archive a form
// @Tags         Forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      200 {object} dto.SuccessResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /api/forms/{id}/archive [post]
func (h *Handler) ArchiveForm(c *gin.Context) {
	h.lifecycle(c, h.ingestion.ArchiveForm)
}

// DeleteForm handles DELETE /api/forms/:id. The form is soft-deleted and its
// sequence counter dropped.
//
// @Summary      Delete a form
// @Tags         Forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      200 {object} dto.SuccessResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /api/forms/{id} [delete]
func (h *Handler) DeleteForm(c *gin.Context) {
	h.lifecycle(c, h.ingestion.DeleteForm)
}

func (h *Handler) lifecycle(c *gin.Context, op func(ctx context.Context, formID string) error) {
	builder := NewResponseBuilder(c)
	formID := c.Param("id")

	if err := op(c.Request.Context(), formID); err != nil {
		status, message := submissionStatus(err)
		builder.Error(status, message, err)
		return
	}

	builder.SuccessOK(gin.H{"form_id": formID})
}

// submissionStatus maps service errors to HTTP status codes and messages.
func submissionStatus(err error) (int, string) {
	var validationErr *dto.ValidationError
	switch {
	case errors.Is(err, sequence.ErrFormNotFound):
		return http.StatusNotFound, "Form not found"
	case errors.Is(err, service.ErrResponseNotFound):
		return http.StatusNotFound, "Response not found"
	case errors.Is(err, service.ErrFormClosed):
		return http.StatusForbidden, "Form is not open for submissions"
	case errors.Is(err, service.ErrUserRequired):
		return http.StatusUnauthorized, "Authentication required for this form"
	case errors.Is(err, service.ErrAlreadySubmitted):
		return http.StatusConflict, "A response was already submitted for this form"
	case errors.Is(err, sequence.ErrAllocationFailed):
		return http.StatusServiceUnavailable, "Could not assign a response number, try again"
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	default:
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
}
