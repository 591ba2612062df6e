// Package model defines the core domain entities for the response service.
package model

import "time"

// Form status values.
const (
	FormStatusDraft     = "DRAFT"
	FormStatusPublished = "PUBLISHED"
	FormStatusArchived  = "ARCHIVED"
)

// Question represents a single question belonging to a form.
type Question struct {
	ID       string `bson:"_id" json:"id"`
	Text     string `bson:"text" json:"text"`
	Required bool   `bson:"required" json:"required"`
	Order    int    `bson:"order" json:"order"`
}

// Form represents a survey form as stored in the forms collection.
type Form struct {
	ID          string     `bson:"_id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Status      string     `bson:"status" json:"status"`
	IsAnonymous bool       `bson:"is_anonymous" json:"is_anonymous"`
	OwnerID     string     `bson:"owner_id" json:"owner_id"`
	OpensAt     *time.Time `bson:"opens_at,omitempty" json:"opens_at,omitempty"`
	ClosesAt    *time.Time `bson:"closes_at,omitempty" json:"closes_at,omitempty"`
	Deleted     bool       `bson:"deleted" json:"-"`
	Questions   []Question `bson:"questions" json:"questions"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsOpen reports whether the form currently accepts submissions.
func (f *Form) IsOpen(now time.Time) bool {
	if f.Status != FormStatusPublished || f.Deleted {
		return false
	}
	if f.OpensAt != nil && now.Before(*f.OpensAt) {
		return false
	}
	if f.ClosesAt != nil && now.After(*f.ClosesAt) {
		return false
	}
	return true
}

// QuestionByID returns the question with the given ID, if any.
func (f *Form) QuestionByID(id string) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
