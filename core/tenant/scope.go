package tenant

import (
	"context"

	"github.com/samber/lo"
)

// Scope memoizes a manager's derived id sets for the duration of one
// operation, so a handler running several ownership checks only resolves
// the teacher set once. Scopes are throwaway per-request values; there is
// no cross-request cache (correctness over staleness).
type Scope struct {
	svc       *Service
	ManagerID string

	teacherIDs []string
	studentIDs []string
	classIDs   []string
}

func (svc *Service) NewScope(managerID string) *Scope {
	return &Scope{svc: svc, ManagerID: managerID}
}

func (s *Scope) TeacherIDs(ctx context.Context) ([]string, error) {
	if s.teacherIDs == nil {
		ids, err := s.svc.ResolveTeacherIDs(ctx, s.ManagerID)
		if err != nil {
			return nil, err
		}
		s.teacherIDs = ids
	}
	return s.teacherIDs, nil
}

func (s *Scope) StudentIDs(ctx context.Context) ([]string, error) {
	if s.studentIDs == nil {
		ids, err := s.svc.ResolveStudentIDs(ctx, s.ManagerID)
		if err != nil {
			return nil, err
		}
		s.studentIDs = ids
	}
	return s.studentIDs, nil
}

func (s *Scope) ClassIDs(ctx context.Context) ([]string, error) {
	if s.classIDs == nil {
		teacherIDs, err := s.TeacherIDs(ctx)
		if err != nil {
			return nil, err
		}
		if len(teacherIDs) == 0 {
			s.classIDs = []string{}
			return s.classIDs, nil
		}
		ids, err := s.svc.repo.FilterClassIDsByTeacherIDs(ctx, teacherIDs)
		if err != nil {
			return nil, err
		}
		s.classIDs = ids
	}
	return s.classIDs, nil
}

// ContainsTeacher checks membership against the memoized teacher set.
func (s *Scope) ContainsTeacher(ctx context.Context, teacherID string) (bool, error) {
	ids, err := s.TeacherIDs(ctx)
	if err != nil {
		return false, err
	}
	return lo.Contains(ids, teacherID), nil
}

// ContainsClass checks membership against the memoized class set.
func (s *Scope) ContainsClass(ctx context.Context, classID string) (bool, error) {
	ids, err := s.ClassIDs(ctx)
	if err != nil {
		return false, err
	}
	return lo.Contains(ids, classID), nil
}
