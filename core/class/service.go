package class

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("class not found")

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		// FilterClassesByTeacherIDs must never be called with an empty id
		// list; callers short-circuit instead.
		FilterClassesByTeacherIDs(ctx context.Context, teacherIDs []string) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		// DeleteClassesByID cascades each class's assignments (and their
		// submissions).
		DeleteClassesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:      nc.Name,
		Subject:   nc.Subject,
		TeacherID: nc.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

// FilterByTeacherIDs returns the classes owned by any of the given
// teachers. An empty id set resolves to no classes without touching the
// store.
func (svc *Service) FilterByTeacherIDs(ctx context.Context, teacherIDs []string) ([]Class, error) {
	if len(teacherIDs) == 0 {
		return []Class{}, nil
	}
	return svc.repo.FilterClassesByTeacherIDs(ctx, teacherIDs)
}

func (svc *Service) Update(ctx context.Context, orig Class, uc UpdateClass) (Class, error) {
	cls := orig
	cls.Name = uc.Name
	cls.Subject = uc.Subject
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClassesByID(ctx, ids...)
}
