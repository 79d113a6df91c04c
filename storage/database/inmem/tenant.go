package inmemdb

import (
	"context"

	"github.com/samber/lo"

	"github.com/napthedev/edura/core/tenant"
)

type tenantRepository struct {
	users   *userTable
	classes *classTable
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *DB) *tenantRepository {
	return &tenantRepository{users: db.user, classes: db.class}
}

func (repo *tenantRepository) FilterUserIDs(_ context.Context, role, managerID string) ([]string, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	ids := []string{}
	for _, usr := range repo.users.table {
		if usr.Role == role && usr.ManagerID.String == managerID {
			ids = append(ids, usr.ID)
		}
	}
	return ids, nil
}

func (repo *tenantRepository) UserExists(_ context.Context, id, role, managerID string) (bool, error) {
	repo.users.RLock()
	defer repo.users.RUnlock()

	usr, ok := repo.users.table[id]
	return ok && usr.Role == role && usr.ManagerID.String == managerID, nil
}

func (repo *tenantRepository) FilterClassIDsByTeacherIDs(_ context.Context, teacherIDs []string) ([]string, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	ids := []string{}
	for _, cls := range repo.classes.table {
		if lo.Contains(teacherIDs, cls.TeacherID) {
			ids = append(ids, cls.ID)
		}
	}
	return ids, nil
}

func (repo *tenantRepository) GetClassTeacherID(_ context.Context, classID string) (string, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	if cls, ok := repo.classes.table[classID]; ok {
		return cls.TeacherID, nil
	}
	return "", tenant.ErrClassNotFound
}
