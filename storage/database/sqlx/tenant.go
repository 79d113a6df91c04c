package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/tenant"
)

type tenantRepository struct {
	db *sqlx.DB
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *sqlx.DB) *tenantRepository {
	return &tenantRepository{db: db}
}

func (repo *tenantRepository) FilterUserIDs(ctx context.Context, role, managerID string) ([]string, error) {
	ids := []string{}
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT id FROM "user" WHERE role = $1 AND manager_id = $2`, role, managerID)
	if err != nil {
		return nil, trapErr(err, nil, "filtering user ids")
	}
	return ids, nil
}

func (repo *tenantRepository) UserExists(ctx context.Context, id, role, managerID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM "user" WHERE id = $1 AND role = $2 AND manager_id = $3)`,
		id, role, managerID)
	if err != nil {
		return false, trapErr(err, nil, "checking user existence")
	}
	return exists, nil
}

func (repo *tenantRepository) FilterClassIDsByTeacherIDs(ctx context.Context, teacherIDs []string) ([]string, error) {
	query, args, err := sqlx.In(`SELECT id FROM class WHERE teacher_id IN (?)`, teacherIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building class id query")
	}
	ids := []string{}
	if err := repo.db.SelectContext(ctx, &ids, repo.db.Rebind(query), args...); err != nil {
		return nil, trapErr(err, nil, "filtering class ids by teachers")
	}
	return ids, nil
}

func (repo *tenantRepository) GetClassTeacherID(ctx context.Context, classID string) (string, error) {
	var teacherID string
	err := repo.db.GetContext(ctx, &teacherID, `SELECT teacher_id FROM class WHERE id = $1`, classID)
	if err != nil {
		return "", trapErr(err, tenant.ErrClassNotFound, "getting class owner")
	}
	return teacherID, nil
}
