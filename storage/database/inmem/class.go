package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/napthedev/edura/core/class"
)

type classRepository struct {
	db    *classTable
	adb   *assignmentTable
	arepo *assignmentRepository
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db.class, adb: db.assignment, arepo: NewAssignmentRepository(db)}
}

func (repo *classRepository) query() []class.Class {
	classes := make([]class.Class, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.After(classes[j].CreatedAt) })
	return classes
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.New().String()
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClassByID(_ context.Context, id string) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) FilterClassesByTeacherIDs(_ context.Context, teacherIDs []string) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matches := make([]class.Class, 0)
	for _, cls := range repo.query() {
		if lo.Contains(teacherIDs, cls.TeacherID) {
			matches = append(matches, cls)
		}
	}
	return matches, nil
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cls.ID]; !ok {
		return class.Class{}, class.ErrNotFound
	}
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) DeleteClassesByID(ctx context.Context, ids ...string) error {
	// cascade assignments (and their submissions) first
	repo.adb.RLock()
	var assignmentIDs []string
	for _, a := range repo.adb.table {
		if lo.Contains(ids, a.ClassID) {
			assignmentIDs = append(assignmentIDs, a.ID)
		}
	}
	repo.adb.RUnlock()
	if len(assignmentIDs) > 0 {
		if err := repo.arepo.DeleteAssignmentsByID(ctx, assignmentIDs...); err != nil {
			return err
		}
	}

	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
