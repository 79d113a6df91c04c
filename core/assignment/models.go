package assignment

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/napthedev/edura/core"
)

// Assignment belongs to one class and carries a polymorphic content
// payload. It is authored by a teacher and mutated only by the owning
// teacher; deleting it cascades its submissions.
type Assignment struct {
	ID          string    `json:"id"`
	ClassID     string    `json:"class_id"`
	CreatedBy   string    `json:"created_by"` // owning teacher id
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     null.Time `json:"due_date,omitempty"`
	// TestingDuration is a time limit in minutes for timed work.
	TestingDuration null.Int  `json:"testing_duration,omitempty"`
	Content         Content   `json:"content"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// PastDue reports whether the assignment's due date has passed at `now`.
// Assignments without a due date are never past due.
func (a Assignment) PastDue(now time.Time) bool {
	return a.DueDate.Valid && now.After(a.DueDate.Time)
}

// Submission is the one-shot answer of a student to an assignment. At most
// one submission exists per (assignment, student); the row is immutable
// after creation except for the grading fields.
type Submission struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	// Answers maps question ids to raw answers for quiz content.
	Answers map[string]string `json:"answers,omitempty"`
	// Text and Attachments hold free-form work for written content.
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"` // UTC
	Grade       null.Int     `json:"grade,omitempty"`
	Feedback    null.String  `json:"feedback,omitempty"`
	GradedAt    null.Time    `json:"graded_at,omitempty"`
}

func (s Submission) IsGraded() bool { return s.Grade.Valid }

// NewAssignment contains information needed to author a new Assignment.
type NewAssignment struct {
	ClassID         string    `json:"class_id" validate:"required"`
	CreatedBy       string    `json:"-"`
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description"`
	DueDate         null.Time `json:"due_date"`
	TestingDuration null.Int  `json:"testing_duration" validate:"omitempty,min=1"`
	Content         Content   `json:"content"`
}

func (na *NewAssignment) Validate(ctx context.Context) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)

	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	na.Content.Normalize()
	return na.Content.Validate()
}

// UpdateAssignment defines what may be modified on an existing Assignment.
// The content payload is replaced wholesale when provided.
type UpdateAssignment struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DueDate         null.Time `json:"due_date"`
	TestingDuration null.Int  `json:"testing_duration" validate:"omitempty,min=1"`
	Content         *Content  `json:"content"`
}

func (ua *UpdateAssignment) Validate(orig Assignment) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	ua.Description = core.CleanString(ua.Description)

	if err := core.Validate.Struct(ua); err != nil {
		return err
	}
	if ua.Content != nil {
		ua.Content.Normalize()
		return ua.Content.Validate()
	}
	return nil
}

// NewSubmission contains a student's raw answer to an assignment.
type NewSubmission struct {
	StudentID   string            `json:"-"`
	Answers     map[string]string `json:"answers"`
	Text        string            `json:"text"`
	Attachments []Attachment      `json:"attachments"`

	// AllowLate is the caller-supplied late submission policy. The engine
	// does not decide deadline enforcement; the product layer does.
	AllowLate bool `json:"-"`
}

// ManualGrade carries a teacher's grade for written work.
type ManualGrade struct {
	Grade    int    `json:"grade"`
	Feedback string `json:"feedback"`
}
