// Package dto defines request and response types for the HTTP API.
package dto

import (
	"fmt"
	"strings"
)

// SubmitResponseRequest is the body of POST /api/forms/:id/responses.
// @Description Form submission payload: a map of question ID to answer value
type SubmitResponseRequest struct {
	// Answers maps question IDs to answer values (string, number, or string list).
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

// ValidationError describes a rejected submission.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks structural validity of the request. Form-specific rules
// (required questions, unknown question IDs) are enforced by the ingestion
// service, which knows the form.
func (r *SubmitResponseRequest) Validate() error {
	if len(r.Answers) == 0 {
		return &ValidationError{Field: "answers", Message: "must not be empty"}
	}
	for questionID := range r.Answers {
		if strings.TrimSpace(questionID) == "" {
			return &ValidationError{Field: "answers", Message: "question id must not be blank"}
		}
	}
	return nil
}

// SubmitResponseResult is returned after a successful submission.
// @Description Submission acknowledgment with the assigned progressive number
type SubmitResponseResult struct {
	ResponseID        string `json:"response_id"`
	ProgressiveNumber int64  `json:"progressive_number"`
} // @name SubmitResponseResult

// SummaryFilter holds the optional query filters for the forms summary listing.
type SummaryFilter struct {
	Search string `form:"search"`
	Status string `form:"status"`
}

// CacheKey returns a stable cache-key fragment for this filter combination.
func (f SummaryFilter) CacheKey() string {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status == "" {
		status = "all"
	}
	if search == "" {
		return status
	}
	return status + ":" + search
}
