package model

import "time"

// Answer is a single question/value pair within a response.
type Answer struct {
	QuestionID string      `bson:"question_id" json:"question_id"`
	Value      interface{} `bson:"value" json:"value"`
}

// Response represents a submitted form response.
//
// ProgressiveNumber is the per-form sequential identifier handed out by the
// sequence allocator. For anonymous forms it is the only stable way to refer
// back to a submission.
type Response struct {
	ID                string    `bson:"_id" json:"id"`
	FormID            string    `bson:"form_id" json:"form_id"`
	ProgressiveNumber int64     `bson:"progressive_number" json:"progressive_number"`
	UserID            string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Answers           []Answer  `bson:"answers" json:"answers"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}
