// Package tenant derives which teachers, students and classes belong to a
// manager's organization, and guards manager-facing operations with
// ownership checks. Every manager-scoped read or write must pass through
// one of the Verify predicates before touching rows outside the manager's
// own graph.
package tenant

import (
	"context"

	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/user"
)

var (
	// ErrAccessDenied is returned when a resource exists but belongs to a
	// different manager, or does not exist at all. The two cases are
	// deliberately indistinguishable so callers cannot probe for existence.
	ErrAccessDenied = errors.New("not found or access denied")

	// ErrClassNotFound is returned by Repository.GetClassTeacherID for a
	// missing class.
	ErrClassNotFound = errors.New("class not found")
)

type (
	// Repository is the minimal row-query capability the resolver needs.
	// All queries are pure and side-effect free; implementations surface
	// transient failures as core.ErrStoreUnavailable.
	Repository interface {
		// FilterUserIDs returns the ids of all users with the given role
		// owned by the given manager.
		FilterUserIDs(ctx context.Context, role, managerID string) ([]string, error)
		// UserExists checks identity, role and manager ownership in one
		// predicate.
		UserExists(ctx context.Context, id, role, managerID string) (bool, error)
		// FilterClassIDsByTeacherIDs must never be issued with an empty id
		// list; the resolver short-circuits instead.
		FilterClassIDsByTeacherIDs(ctx context.Context, teacherIDs []string) ([]string, error)
		// GetClassTeacherID returns ErrClassNotFound when the class does
		// not exist.
		GetClassTeacherID(ctx context.Context, classID string) (string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveTeacherIDs returns all teacher ids owned by the manager. An empty
// set is valid (a new manager with no staff yet).
func (svc *Service) ResolveTeacherIDs(ctx context.Context, managerID string) ([]string, error) {
	ids, err := svc.repo.FilterUserIDs(ctx, user.RoleTeacher, managerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolving teacher ids")
	}
	return ids, nil
}

// ResolveStudentIDs returns all student ids owned by the manager.
func (svc *Service) ResolveStudentIDs(ctx context.Context, managerID string) ([]string, error) {
	ids, err := svc.repo.FilterUserIDs(ctx, user.RoleStudent, managerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolving student ids")
	}
	return ids, nil
}

// ResolveClassIDs returns the ids of all classes whose owning teacher
// belongs to the manager. When the manager has no teachers the class
// lookup is skipped entirely: an `IN (...)` predicate must never be issued
// with an empty id list.
func (svc *Service) ResolveClassIDs(ctx context.Context, managerID string) ([]string, error) {
	teacherIDs, err := svc.ResolveTeacherIDs(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if len(teacherIDs) == 0 {
		return []string{}, nil
	}
	ids, err := svc.repo.FilterClassIDsByTeacherIDs(ctx, teacherIDs)
	if err != nil {
		return nil, errors.Wrap(err, "resolving class ids")
	}
	return ids, nil
}

// VerifyTeacherBelongsToManager reports whether the teacher exists and is
// owned by the manager.
func (svc *Service) VerifyTeacherBelongsToManager(ctx context.Context, teacherID, managerID string) (bool, error) {
	ok, err := svc.repo.UserExists(ctx, teacherID, user.RoleTeacher, managerID)
	if err != nil {
		return false, errors.Wrap(err, "verifying teacher ownership")
	}
	return ok, nil
}

// VerifyStudentBelongsToManager reports whether the student exists and is
// owned by the manager.
func (svc *Service) VerifyStudentBelongsToManager(ctx context.Context, studentID, managerID string) (bool, error) {
	ok, err := svc.repo.UserExists(ctx, studentID, user.RoleStudent, managerID)
	if err != nil {
		return false, errors.Wrap(err, "verifying student ownership")
	}
	return ok, nil
}

// VerifyClassBelongsToManager resolves the class's owning teacher and
// checks that teacher against the manager. A missing class yields false,
// not an error.
func (svc *Service) VerifyClassBelongsToManager(ctx context.Context, classID, managerID string) (bool, error) {
	teacherID, err := svc.repo.GetClassTeacherID(ctx, classID)
	if err != nil {
		if errors.Cause(err) == ErrClassNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "resolving class owner")
	}
	return svc.VerifyTeacherBelongsToManager(ctx, teacherID, managerID)
}

// RequireTeacher is a guard wrapper: a failed check surfaces as
// ErrAccessDenied rather than a boolean, matching how handlers consume it.
func (svc *Service) RequireTeacher(ctx context.Context, teacherID, managerID string) error {
	return svc.require(svc.VerifyTeacherBelongsToManager(ctx, teacherID, managerID))
}

func (svc *Service) RequireStudent(ctx context.Context, studentID, managerID string) error {
	return svc.require(svc.VerifyStudentBelongsToManager(ctx, studentID, managerID))
}

func (svc *Service) RequireClass(ctx context.Context, classID, managerID string) error {
	return svc.require(svc.VerifyClassBelongsToManager(ctx, classID, managerID))
}

func (svc *Service) require(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}
