package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/napthedev/edura/core/assignment"
)

const submissionUniqueConstraint = "submission_assignment_student_key"

type assignmentRow struct {
	ID              string         `db:"id"`
	ClassID         string         `db:"class_id"`
	CreatedBy       string         `db:"created_by"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	DueDate         null.Time      `db:"due_date"`
	TestingDuration null.Int       `db:"testing_duration"`
	Content         types.JSONText `db:"content"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r assignmentRow) unpack() (assignment.Assignment, error) {
	content, err := assignment.DecodeContent(r.Content)
	if err != nil {
		return assignment.Assignment{}, err
	}
	return assignment.Assignment{
		ID:              r.ID,
		ClassID:         r.ClassID,
		CreatedBy:       r.CreatedBy,
		Title:           r.Title,
		Description:     r.Description,
		DueDate:         r.DueDate,
		TestingDuration: r.TestingDuration,
		Content:         content,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func packAssignment(a assignment.Assignment) (assignmentRow, error) {
	content, err := a.Content.Encode()
	if err != nil {
		return assignmentRow{}, err
	}
	return assignmentRow{
		ID:              a.ID,
		ClassID:         a.ClassID,
		CreatedBy:       a.CreatedBy,
		Title:           a.Title,
		Description:     a.Description,
		DueDate:         a.DueDate,
		TestingDuration: a.TestingDuration,
		Content:         content,
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}, nil
}

type submissionRow struct {
	ID           string         `db:"id"`
	AssignmentID string         `db:"assignment_id"`
	StudentID    string         `db:"student_id"`
	Answers      types.JSONText `db:"answers"`
	Body         string         `db:"body"`
	Attachments  types.JSONText `db:"attachments"`
	SubmittedAt  time.Time      `db:"submitted_at"`
	Grade        null.Int       `db:"grade"`
	Feedback     null.String    `db:"feedback"`
	GradedAt     null.Time      `db:"graded_at"`
}

func (r submissionRow) unpack() (assignment.Submission, error) {
	sub := assignment.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Text:         r.Body,
		SubmittedAt:  r.SubmittedAt,
		Grade:        r.Grade,
		Feedback:     r.Feedback,
		GradedAt:     r.GradedAt,
	}
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &sub.Answers); err != nil {
			return assignment.Submission{}, errors.Wrap(err, "decoding submission answers")
		}
	}
	if len(r.Attachments) > 0 {
		if err := json.Unmarshal(r.Attachments, &sub.Attachments); err != nil {
			return assignment.Submission{}, errors.Wrap(err, "decoding submission attachments")
		}
	}
	return sub, nil
}

func packSubmission(sub assignment.Submission) (submissionRow, error) {
	row := submissionRow{
		ID:           sub.ID,
		AssignmentID: sub.AssignmentID,
		StudentID:    sub.StudentID,
		Body:         sub.Text,
		SubmittedAt:  sub.SubmittedAt.UTC(),
		Grade:        sub.Grade,
		Feedback:     sub.Feedback,
		GradedAt:     sub.GradedAt,
	}
	if sub.Answers != nil {
		data, err := json.Marshal(sub.Answers)
		if err != nil {
			return submissionRow{}, errors.Wrap(err, "encoding submission answers")
		}
		row.Answers = data
	}
	if sub.Attachments != nil {
		data, err := json.Marshal(sub.Attachments)
		if err != nil {
			return submissionRow{}, errors.Wrap(err, "encoding submission attachments")
		}
		row.Attachments = data
	}
	return row, nil
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	row, err := packAssignment(a)
	if err != nil {
		return assignment.Assignment{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO assignment (id, class_id, created_by, title, description, due_date, testing_duration, content, created_at, updated_at)
		VALUES (:id, :class_id, :created_by, :title, :description, :due_date, :testing_duration, :content, :created_at, :updated_at)`,
		row)
	if err != nil {
		return assignment.Assignment{}, trapErr(err, nil, "inserting assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		return assignment.Assignment{}, trapErr(err, assignment.ErrNotFound, "getting assignment by id")
	}
	return row.unpack()
}

func (repo *assignmentRepository) FilterAssignmentsByClassID(ctx context.Context, classID string) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM assignment WHERE class_id = $1 ORDER BY created_at DESC`, classID)
	if err != nil {
		return nil, trapErr(err, nil, "filtering assignments by class")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		a, err := r.unpack()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	row, err := packAssignment(a)
	if err != nil {
		return assignment.Assignment{}, err
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE assignment
		SET title = :title, description = :description, due_date = :due_date,
		    testing_duration = :testing_duration, content = :content, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return assignment.Assignment{}, trapErr(err, nil, "updating assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// submissions go with the assignment (FK cascade)
	query, args, err := sqlx.In(`DELETE FROM assignment WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return trapErr(err, nil, "deleting assignments")
	}
	return nil
}

func (repo *assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = uuid.New().String()
	row, err := packSubmission(sub)
	if err != nil {
		return assignment.Submission{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO submission (id, assignment_id, student_id, answers, body, attachments, submitted_at, grade, feedback, graded_at)
		VALUES (:id, :assignment_id, :student_id, :answers, :body, :attachments, :submitted_at, :grade, :feedback, :graded_at)`,
		row)
	if err != nil {
		// the unique index is the only duplicate check; check-then-insert
		// would race with concurrent submits
		if isUniqueViolation(err, submissionUniqueConstraint) {
			return assignment.Submission{}, assignment.ErrAlreadySubmitted
		}
		return assignment.Submission{}, trapErr(err, nil, "inserting submission")
	}
	return sub, nil
}

func (repo *assignmentRepository) GetSubmissionByID(ctx context.Context, id string) (assignment.Submission, error) {
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM submission WHERE id = $1`, id); err != nil {
		return assignment.Submission{}, trapErr(err, assignment.ErrSubmissionNotFound, "getting submission by id")
	}
	return row.unpack()
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	var row submissionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM submission WHERE assignment_id = $1 AND student_id = $2`, assignmentID, studentID)
	if err != nil {
		return assignment.Submission{}, trapErr(err, assignment.ErrSubmissionNotFound, "getting submission")
	}
	return row.unpack()
}

func (repo *assignmentRepository) FilterSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]assignment.Submission, error) {
	var rows []submissionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM submission WHERE assignment_id = $1 ORDER BY submitted_at ASC`, assignmentID)
	if err != nil {
		return nil, trapErr(err, nil, "filtering submissions by assignment")
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, r := range rows {
		sub, err := r.unpack()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmissionGrade(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE submission SET grade = $2, feedback = $3, graded_at = $4 WHERE id = $1`,
		sub.ID, sub.Grade, sub.Feedback, sub.GradedAt)
	if err != nil {
		return assignment.Submission{}, trapErr(err, nil, "updating submission grade")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return sub, nil
}
