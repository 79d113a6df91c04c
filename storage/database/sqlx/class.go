package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/class"
)

type classRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Subject   string    `db:"subject"`
	TeacherID string    `db:"teacher_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r classRow) unpack() class.Class {
	return class.Class(r)
}

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO class (id, name, subject, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		cls.ID, cls.Name, cls.Subject, cls.TeacherID, cls.CreatedAt.UTC(), cls.UpdatedAt.UTC())
	if err != nil {
		return class.Class{}, trapErr(err, nil, "inserting class")
	}
	return cls, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	var row classRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		return class.Class{}, trapErr(err, class.ErrNotFound, "getting class by id")
	}
	return row.unpack(), nil
}

func (repo *classRepository) FilterClassesByTeacherIDs(ctx context.Context, teacherIDs []string) ([]class.Class, error) {
	query, args, err := sqlx.In(`SELECT * FROM class WHERE teacher_id IN (?) ORDER BY created_at DESC`, teacherIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building class filter query")
	}
	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, trapErr(err, nil, "filtering classes by teachers")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.unpack())
	}
	return classes, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE class SET name = $2, subject = $3, updated_at = $4 WHERE id = $1`,
		cls.ID, cls.Name, cls.Subject, cls.UpdatedAt.UTC())
	if err != nil {
		return class.Class{}, trapErr(err, nil, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return cls, nil
}

func (repo *classRepository) DeleteClassesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// assignments and submissions go with the class (FK cascade)
	query, args, err := sqlx.In(`DELETE FROM class WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return trapErr(err, nil, "deleting classes")
	}
	return nil
}
