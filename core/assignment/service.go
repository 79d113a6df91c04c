package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/napthedev/edura/core"
)

var (
	// errors
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("this assignment has already been submitted")
	ErrPastDue            = errors.New("the due date for this assignment has passed")
	ErrAutoGraded         = errors.New("quiz submissions are graded automatically")

	nowFunc = time.Now // mockable
)

// MissingAnswersError reports how many quiz questions were left without an
// answer; missing answers are never silently accepted as blank.
type MissingAnswersError struct {
	Count int
}

func (e *MissingAnswersError) Error() string {
	if e.Count == 1 {
		return "1 question is unanswered"
	}
	return fmt.Sprintf("%d questions are unanswered", e.Count)
}

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		FilterAssignmentsByClassID(ctx context.Context, classID string) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// DeleteAssignmentsByID cascades each assignment's submissions.
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error

		// CreateSubmission relies on the store's uniqueness constraint on
		// (assignment_id, student_id) and returns ErrAlreadySubmitted on a
		// violation. An application-level check-then-insert is inherently
		// racy (a double-click submits twice concurrently) and is not an
		// acceptable implementation.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		GetSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		FilterSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]Submission, error)
		// UpdateSubmissionGrade persists the grading fields only; the rest
		// of the row stays immutable.
		UpdateSubmissionGrade(ctx context.Context, sub Submission) (Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	now := nowFunc().UTC()
	a := Assignment{
		ClassID:         na.ClassID,
		CreatedBy:       na.CreatedBy,
		Title:           na.Title,
		Description:     na.Description,
		DueDate:         na.DueDate,
		TestingDuration: na.TestingDuration,
		Content:         na.Content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) FilterByClassID(ctx context.Context, classID string) ([]Assignment, error) {
	return svc.repo.FilterAssignmentsByClassID(ctx, classID)
}

func (svc *Service) Update(ctx context.Context, orig Assignment, ua UpdateAssignment) (Assignment, error) {
	a := orig
	a.Title = ua.Title
	a.Description = ua.Description
	a.DueDate = ua.DueDate
	a.TestingDuration = ua.TestingDuration
	if ua.Content != nil {
		a.Content = *ua.Content
	}
	a.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAssignmentsByID(ctx, ids...)
}

// Submit accepts a student's one-shot submission. Quiz submissions are
// checked for answer coverage and auto-graded on the spot; written and
// flashcard submissions are stored ungraded. A second submission for the
// same (assignment, student) pair is rejected, never overwritten.
func (svc *Service) Submit(ctx context.Context, a Assignment, ns NewSubmission) (Submission, error) {
	now := nowFunc().UTC()
	if !ns.AllowLate && a.PastDue(now) {
		return Submission{}, ErrPastDue
	}

	sub := Submission{
		AssignmentID: a.ID,
		StudentID:    ns.StudentID,
		SubmittedAt:  now,
	}

	switch a.Content.Kind {
	case KindQuiz:
		quiz := a.Content.Quiz
		var missing int
		for _, qn := range quiz.Questions {
			if _, ok := ns.Answers[qn.ID]; !ok {
				missing++
			}
		}
		if missing > 0 {
			return Submission{}, &MissingAnswersError{Count: missing}
		}
		sub.Answers = ns.Answers
		res := a.Content.Grade(ns.Answers)
		sub.Grade.SetValid(res.Score)
		sub.GradedAt.SetValid(now)
	case KindWritten:
		text := core.CleanString(ns.Text)
		if text == "" && len(ns.Attachments) == 0 {
			return Submission{}, core.NewValidationError(nil, core.FieldError{Field: "text", Error: "an answer or at least one attachment is required"})
		}
		sub.Text = text
		sub.Attachments = ns.Attachments
	case KindFlashcard:
		// completion record only; nothing to grade
	default:
		return Submission{}, errors.Errorf("submitting to %q content", a.Content.Kind)
	}

	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *Service) GetSubmissionByID(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *Service) GetSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, assignmentID, studentID)
}

func (svc *Service) FilterSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]Submission, error) {
	return svc.repo.FilterSubmissionsByAssignmentID(ctx, assignmentID)
}

// GradeManually applies a teacher's grade to a written submission. The
// grade must be an integer in [0,100]; anything else is rejected before
// any write. Re-grading overwrites the previous grade and feedback, and
// the submission stays marked as graded (ungrading is not an operation).
func (svc *Service) GradeManually(ctx context.Context, a Assignment, sub Submission, mg ManualGrade) (Submission, error) {
	if mg.Grade < 0 || mg.Grade > 100 {
		return Submission{}, core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "grade must be between 0 and 100"})
	}
	if a.Content.Kind == KindQuiz {
		return Submission{}, ErrAutoGraded
	}

	feedback := core.CleanString(mg.Feedback)
	sub.Grade.SetValid(mg.Grade)
	sub.Feedback = null.NewString(feedback, feedback != "")
	sub.GradedAt.SetValid(nowFunc().UTC())

	return svc.repo.UpdateSubmissionGrade(ctx, sub)
}
