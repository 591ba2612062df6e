package model

import "time"

// DashboardStats holds the aggregate numbers shown on the admin dashboard.
// All counts are scoped to a single form when FormID is set, global otherwise.
type DashboardStats struct {
	FormID             string `json:"form_id,omitempty"`
	TotalForms         int64  `json:"total_forms"`
	TotalResponses     int64  `json:"total_responses"`
	TotalUsers         int64  `json:"total_users"`
	TotalAnswers       int64  `json:"total_answers"`
	TotalQuestions     int64  `json:"total_questions"`
	CompletionRate     int    `json:"completion_rate"`
	LastMonthForms     int64  `json:"last_month_forms"`
	LastMonthResponses int64  `json:"last_month_responses"`
	LastMonthUsers     int64  `json:"last_month_users"`
}

// FormSummary is the lightweight per-form row returned by the summary listing.
type FormSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	IsAnonymous   bool      `json:"is_anonymous"`
	ResponseCount int64     `json:"response_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}
