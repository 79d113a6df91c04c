package assignment

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/napthedev/edura/core"
)

// fakeRepo is a map-backed Repository that enforces the same
// (assignment_id, student_id) uniqueness constraint as the real store.
type fakeRepo struct {
	seq         int
	assignments map[string]Assignment
	submissions map[string]Submission
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		assignments: make(map[string]Assignment),
		submissions: make(map[string]Submission),
	}
}

func (r *fakeRepo) nextID() string {
	r.seq++
	return strconv.Itoa(r.seq)
}

func (r *fakeRepo) CreateAssignment(_ context.Context, a Assignment) (Assignment, error) {
	a.ID = r.nextID()
	r.assignments[a.ID] = a
	return a, nil
}

func (r *fakeRepo) GetAssignmentByID(_ context.Context, id string) (Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return Assignment{}, ErrNotFound
	}
	return a, nil
}

func (r *fakeRepo) FilterAssignmentsByClassID(_ context.Context, classID string) ([]Assignment, error) {
	var out []Assignment
	for _, a := range r.assignments {
		if a.ClassID == classID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateAssignment(_ context.Context, a Assignment) (Assignment, error) {
	if _, ok := r.assignments[a.ID]; !ok {
		return Assignment{}, ErrNotFound
	}
	r.assignments[a.ID] = a
	return a, nil
}

func (r *fakeRepo) DeleteAssignmentsByID(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.assignments, id)
		for sid, sub := range r.submissions {
			if sub.AssignmentID == id {
				delete(r.submissions, sid)
			}
		}
	}
	return nil
}

func (r *fakeRepo) CreateSubmission(_ context.Context, sub Submission) (Submission, error) {
	for _, existing := range r.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			return Submission{}, ErrAlreadySubmitted
		}
	}
	sub.ID = r.nextID()
	r.submissions[sub.ID] = sub
	return sub, nil
}

func (r *fakeRepo) GetSubmissionByID(_ context.Context, id string) (Submission, error) {
	sub, ok := r.submissions[id]
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	return sub, nil
}

func (r *fakeRepo) GetSubmission(_ context.Context, assignmentID, studentID string) (Submission, error) {
	for _, sub := range r.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return sub, nil
		}
	}
	return Submission{}, ErrSubmissionNotFound
}

func (r *fakeRepo) FilterSubmissionsByAssignmentID(_ context.Context, assignmentID string) ([]Submission, error) {
	var out []Submission
	for _, sub := range r.submissions {
		if sub.AssignmentID == assignmentID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateSubmissionGrade(_ context.Context, sub Submission) (Submission, error) {
	existing, ok := r.submissions[sub.ID]
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	existing.Grade = sub.Grade
	existing.Feedback = sub.Feedback
	existing.GradedAt = sub.GradedAt
	r.submissions[existing.ID] = existing
	return existing, nil
}

func createAssignment(t *testing.T, svc *Service, content Content, dueDate null.Time) Assignment {
	t.Helper()
	a, err := svc.Create(context.Background(), NewAssignment{
		ClassID:   "class1",
		CreatedBy: "teacher1",
		Title:     "Homework",
		DueDate:   dueDate,
		Content:   content,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return a
}

func TestService_Submit_quiz(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()
	quiz := validQuiz()
	a := createAssignment(t, svc, quiz, null.Time{})

	t.Run("missing answers are rejected with a count", func(t *testing.T) {
		_, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1", Answers: map[string]string{"q1": "paris"}})
		var maErr *MissingAnswersError
		if !errors.As(err, &maErr) {
			t.Fatalf("Submit() error = %v, want MissingAnswersError", err)
		}
		if maErr.Count != 2 {
			t.Errorf("MissingAnswersError.Count = %d, want 2", maErr.Count)
		}
		if maErr.Error() != "2 questions are unanswered" {
			t.Errorf("MissingAnswersError.Error() = %q", maErr.Error())
		}
	})

	answers := map[string]string{"q1": "paris", "q2": "b", "q3": "false"}

	t.Run("auto-graded on the spot", func(t *testing.T) {
		sub, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1", Answers: answers})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if !sub.IsGraded() {
			t.Fatal("Submit() quiz submission is not graded")
		}
		if sub.Grade.Int != 67 {
			t.Errorf("Submit() grade = %d, want 67", sub.Grade.Int)
		}
		if !sub.GradedAt.Valid {
			t.Error("Submit() gradedAt not set")
		}
	})

	t.Run("second submission is rejected", func(t *testing.T) {
		_, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1", Answers: answers})
		if errors.Cause(err) != ErrAlreadySubmitted {
			t.Errorf("Submit() error = %v, want ErrAlreadySubmitted", err)
		}
	})
}

func TestService_Submit_written(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()
	a := createAssignment(t, svc, Content{Kind: KindWritten, Written: &WrittenContent{Instructions: "Essay."}}, null.Time{})

	t.Run("empty work is rejected", func(t *testing.T) {
		_, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1", Text: "   "})
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Errorf("Submit() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("stored ungraded", func(t *testing.T) {
		sub, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1", Text: "  my essay  "})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if sub.Text != "my essay" {
			t.Errorf("Submit() text = %q, want cleaned", sub.Text)
		}
		if sub.IsGraded() {
			t.Error("Submit() written submission must not be auto-graded")
		}
	})

	t.Run("attachments alone are enough", func(t *testing.T) {
		sub, err := svc.Submit(ctx, a, NewSubmission{
			StudentID:   "stu2",
			Attachments: []Attachment{{Name: "essay.pdf", URL: "https://cdn.test/essay.pdf"}},
		})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if len(sub.Attachments) != 1 {
			t.Errorf("Submit() attachments = %d, want 1", len(sub.Attachments))
		}
	})
}

func TestService_Submit_latePolicy(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	due := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	a := createAssignment(t, svc, Content{Kind: KindFlashcard, Flashcard: &FlashcardContent{
		Cards: []Card{{Index: 1, Front: "chat", Back: "cat"}},
	}}, null.TimeFrom(due))

	nowFunc = func() time.Time { return due.Add(time.Hour) }
	defer func() { nowFunc = time.Now }()

	if _, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1"}); errors.Cause(err) != ErrPastDue {
		t.Errorf("Submit() past due error = %v, want ErrPastDue", err)
	}

	sub, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1", AllowLate: true})
	if err != nil {
		t.Fatalf("Submit() with AllowLate failed: %v", err)
	}
	if !sub.SubmittedAt.Equal(due.Add(time.Hour)) {
		t.Errorf("Submit() submittedAt = %v, want %v", sub.SubmittedAt, due.Add(time.Hour))
	}

	// on-time path
	nowFunc = func() time.Time { return due.Add(-time.Hour) }
	if _, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu2"}); err != nil {
		t.Errorf("Submit() before due date failed: %v", err)
	}
}

func TestService_GradeManually(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()
	a := createAssignment(t, svc, Content{Kind: KindWritten, Written: &WrittenContent{Instructions: "Essay."}}, null.Time{})
	sub, err := svc.Submit(ctx, a, NewSubmission{StudentID: "stu1", Text: "my essay"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	t.Run("grade bounds", func(t *testing.T) {
		for _, grade := range []int{-1, 101} {
			_, err := svc.GradeManually(ctx, a, sub, ManualGrade{Grade: grade})
			vErr, ok := errors.Cause(err).(*core.ValidationError)
			if !ok {
				t.Fatalf("GradeManually(%d) error = %v, want *core.ValidationError", grade, err)
			}
			if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "grade" {
				t.Errorf("GradeManually(%d) fields = %+v, want [grade]", grade, vErr.Fields)
			}
		}
	})

	t.Run("grades and records feedback", func(t *testing.T) {
		graded, err := svc.GradeManually(ctx, a, sub, ManualGrade{Grade: 85, Feedback: "  good work  "})
		if err != nil {
			t.Fatalf("GradeManually() failed: %v", err)
		}
		if graded.Grade.Int != 85 || !graded.IsGraded() {
			t.Errorf("GradeManually() grade = %+v, want 85", graded.Grade)
		}
		if graded.Feedback.String != "good work" {
			t.Errorf("GradeManually() feedback = %q, want cleaned", graded.Feedback.String)
		}
		if !graded.GradedAt.Valid {
			t.Error("GradeManually() gradedAt not set")
		}
		sub = graded
	})

	t.Run("re-grading overwrites", func(t *testing.T) {
		graded, err := svc.GradeManually(ctx, a, sub, ManualGrade{Grade: 0})
		if err != nil {
			t.Fatalf("GradeManually() failed: %v", err)
		}
		if graded.Grade.Int != 0 || !graded.IsGraded() {
			t.Errorf("GradeManually() grade = %+v, want 0 and still graded", graded.Grade)
		}
		if graded.Feedback.Valid {
			t.Errorf("GradeManually() feedback = %+v, want cleared", graded.Feedback)
		}
	})

	t.Run("full marks accepted", func(t *testing.T) {
		graded, err := svc.GradeManually(ctx, a, sub, ManualGrade{Grade: 100})
		if err != nil {
			t.Fatalf("GradeManually(100) failed: %v", err)
		}
		if graded.Grade.Int != 100 || !graded.IsGraded() {
			t.Errorf("GradeManually(100) grade = %+v, want 100", graded.Grade)
		}
	})

	t.Run("quiz submissions cannot be re-graded by hand", func(t *testing.T) {
		quiz := createAssignment(t, svc, validQuiz(), null.Time{})
		qsub, err := svc.Submit(ctx, quiz, NewSubmission{
			StudentID: "stu1",
			Answers:   map[string]string{"q1": "paris", "q2": "b", "q3": "true"},
		})
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if _, err := svc.GradeManually(ctx, quiz, qsub, ManualGrade{Grade: 50}); errors.Cause(err) != ErrAutoGraded {
			t.Errorf("GradeManually() error = %v, want ErrAutoGraded", err)
		}
	})
}
