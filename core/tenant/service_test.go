package tenant

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/user"
)

type fakeUser struct {
	role      string
	managerID string
}

// fakeRepo is a map-backed Repository that counts store round-trips, so
// tests can assert on short-circuits and memoization.
type fakeRepo struct {
	users   map[string]fakeUser // userID -> role+manager
	classes map[string]string   // classID -> teacherID

	filterUserCalls  int
	filterClassCalls int
}

var _ Repository = (*fakeRepo)(nil)

func (r *fakeRepo) FilterUserIDs(_ context.Context, role, managerID string) ([]string, error) {
	r.filterUserCalls++
	var ids []string
	for id, u := range r.users {
		if u.role == role && u.managerID == managerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepo) UserExists(_ context.Context, id, role, managerID string) (bool, error) {
	u, ok := r.users[id]
	return ok && u.role == role && u.managerID == managerID, nil
}

func (r *fakeRepo) FilterClassIDsByTeacherIDs(_ context.Context, teacherIDs []string) ([]string, error) {
	r.filterClassCalls++
	if len(teacherIDs) == 0 {
		panic("FilterClassIDsByTeacherIDs called with an empty id list")
	}
	var ids []string
	for id, teacherID := range r.classes {
		for _, tid := range teacherIDs {
			if tid == teacherID {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepo) GetClassTeacherID(_ context.Context, classID string) (string, error) {
	teacherID, ok := r.classes[classID]
	if !ok {
		return "", ErrClassNotFound
	}
	return teacherID, nil
}

// newFixture builds three organizations:
//
//	m1: teachers t1, t2 - students s1, s2 - classes c1(t1), c2(t1), c3(t2)
//	m2: teacher t3 - student s3 - class c4(t3)
//	m3: brand new, owns nothing
func newFixture() *fakeRepo {
	return &fakeRepo{
		users: map[string]fakeUser{
			"m1": {role: user.RoleManager, managerID: "m1"},
			"m2": {role: user.RoleManager, managerID: "m2"},
			"m3": {role: user.RoleManager, managerID: "m3"},
			"t1": {role: user.RoleTeacher, managerID: "m1"},
			"t2": {role: user.RoleTeacher, managerID: "m1"},
			"t3": {role: user.RoleTeacher, managerID: "m2"},
			"s1": {role: user.RoleStudent, managerID: "m1"},
			"s2": {role: user.RoleStudent, managerID: "m1"},
			"s3": {role: user.RoleStudent, managerID: "m2"},
		},
		classes: map[string]string{
			"c1": "t1",
			"c2": "t1",
			"c3": "t2",
			"c4": "t3",
		},
	}
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		managerID    string
		wantTeachers []string
		wantStudents []string
		wantClasses  []string
	}{
		{name: "m1", managerID: "m1", wantTeachers: []string{"t1", "t2"}, wantStudents: []string{"s1", "s2"}, wantClasses: []string{"c1", "c2", "c3"}},
		{name: "m2", managerID: "m2", wantTeachers: []string{"t3"}, wantStudents: []string{"s3"}, wantClasses: []string{"c4"}},
		{name: "empty organization", managerID: "m3", wantTeachers: nil, wantStudents: nil, wantClasses: []string{}},
		{name: "unknown manager", managerID: "nope", wantTeachers: nil, wantStudents: nil, wantClasses: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFixture())

			teachers, err := svc.ResolveTeacherIDs(ctx, tt.managerID)
			if err != nil {
				t.Fatalf("ResolveTeacherIDs() failed: %v", err)
			}
			if !reflect.DeepEqual(teachers, tt.wantTeachers) {
				t.Errorf("ResolveTeacherIDs() = %v, want %v", teachers, tt.wantTeachers)
			}

			students, err := svc.ResolveStudentIDs(ctx, tt.managerID)
			if err != nil {
				t.Fatalf("ResolveStudentIDs() failed: %v", err)
			}
			if !reflect.DeepEqual(students, tt.wantStudents) {
				t.Errorf("ResolveStudentIDs() = %v, want %v", students, tt.wantStudents)
			}

			classes, err := svc.ResolveClassIDs(ctx, tt.managerID)
			if err != nil {
				t.Fatalf("ResolveClassIDs() failed: %v", err)
			}
			if !reflect.DeepEqual(classes, tt.wantClasses) {
				t.Errorf("ResolveClassIDs() = %v, want %v", classes, tt.wantClasses)
			}
		})
	}
}

// An empty teacher set must resolve to an empty class set without touching
// the class table at all.
func TestService_ResolveClassIDs_shortCircuit(t *testing.T) {
	repo := newFixture()
	svc := NewService(repo)

	classes, err := svc.ResolveClassIDs(context.Background(), "m3")
	if err != nil {
		t.Fatalf("ResolveClassIDs() failed: %v", err)
	}
	if len(classes) != 0 {
		t.Errorf("ResolveClassIDs() = %v, want empty", classes)
	}
	if repo.filterClassCalls != 0 {
		t.Errorf("class store queried %d times, want 0", repo.filterClassCalls)
	}
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFixture())

	tests := []struct {
		name   string
		verify func() (bool, error)
		want   bool
	}{
		{name: "own teacher", verify: func() (bool, error) { return svc.VerifyTeacherBelongsToManager(ctx, "t1", "m1") }, want: true},
		{name: "foreign teacher", verify: func() (bool, error) { return svc.VerifyTeacherBelongsToManager(ctx, "t1", "m2") }, want: false},
		{name: "missing teacher", verify: func() (bool, error) { return svc.VerifyTeacherBelongsToManager(ctx, "ghost", "m1") }, want: false},
		{name: "student is not a teacher", verify: func() (bool, error) { return svc.VerifyTeacherBelongsToManager(ctx, "s1", "m1") }, want: false},
		{name: "own student", verify: func() (bool, error) { return svc.VerifyStudentBelongsToManager(ctx, "s3", "m2") }, want: true},
		{name: "foreign student", verify: func() (bool, error) { return svc.VerifyStudentBelongsToManager(ctx, "s3", "m1") }, want: false},
		{name: "own class", verify: func() (bool, error) { return svc.VerifyClassBelongsToManager(ctx, "c2", "m1") }, want: true},
		{name: "foreign class", verify: func() (bool, error) { return svc.VerifyClassBelongsToManager(ctx, "c4", "m1") }, want: false},
		{name: "missing class", verify: func() (bool, error) { return svc.VerifyClassBelongsToManager(ctx, "ghost", "m1") }, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.verify()
			if err != nil {
				t.Fatalf("verify failed: %v", err)
			}
			if ok != tt.want {
				t.Errorf("verify = %v, want %v", ok, tt.want)
			}
		})
	}
}

// Verify and Resolve must agree: an id verifies against a manager exactly
// when it is a member of that manager's resolved set.
func TestService_VerifyMatchesResolve(t *testing.T) {
	ctx := context.Background()
	repo := newFixture()
	svc := NewService(repo)

	for _, managerID := range []string{"m1", "m2", "m3"} {
		teacherIDs, err := svc.ResolveTeacherIDs(ctx, managerID)
		if err != nil {
			t.Fatalf("ResolveTeacherIDs() failed: %v", err)
		}
		inSet := func(ids []string, id string) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		}
		for id, u := range repo.users {
			if u.role != user.RoleTeacher {
				continue
			}
			ok, err := svc.VerifyTeacherBelongsToManager(ctx, id, managerID)
			if err != nil {
				t.Fatalf("VerifyTeacherBelongsToManager() failed: %v", err)
			}
			if ok != inSet(teacherIDs, id) {
				t.Errorf("verify(%s, %s) = %v, disagrees with resolved set %v", id, managerID, ok, teacherIDs)
			}
		}
	}
}

func TestService_Require(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFixture())

	if err := svc.RequireTeacher(ctx, "t1", "m1"); err != nil {
		t.Errorf("RequireTeacher() own teacher failed: %v", err)
	}
	if err := svc.RequireTeacher(ctx, "t1", "m2"); errors.Cause(err) != ErrAccessDenied {
		t.Errorf("RequireTeacher() foreign teacher error = %v, want ErrAccessDenied", err)
	}
	if err := svc.RequireStudent(ctx, "s1", "m2"); errors.Cause(err) != ErrAccessDenied {
		t.Errorf("RequireStudent() foreign student error = %v, want ErrAccessDenied", err)
	}
	if err := svc.RequireClass(ctx, "c1", "m1"); err != nil {
		t.Errorf("RequireClass() own class failed: %v", err)
	}
	if err := svc.RequireClass(ctx, "ghost", "m1"); errors.Cause(err) != ErrAccessDenied {
		t.Errorf("RequireClass() missing class error = %v, want ErrAccessDenied", err)
	}
}

func TestScope_memoizes(t *testing.T) {
	ctx := context.Background()
	repo := newFixture()
	svc := NewService(repo)
	scope := svc.NewScope("m1")

	for i := 0; i < 3; i++ {
		ok, err := scope.ContainsTeacher(ctx, "t1")
		if err != nil {
			t.Fatalf("ContainsTeacher() failed: %v", err)
		}
		if !ok {
			t.Error("ContainsTeacher(t1) = false, want true")
		}
	}
	if repo.filterUserCalls != 1 {
		t.Errorf("user store queried %d times, want 1", repo.filterUserCalls)
	}

	for i := 0; i < 3; i++ {
		ok, err := scope.ContainsClass(ctx, "c3")
		if err != nil {
			t.Fatalf("ContainsClass() failed: %v", err)
		}
		if !ok {
			t.Error("ContainsClass(c3) = false, want true")
		}
	}
	if repo.filterClassCalls != 1 {
		t.Errorf("class store queried %d times, want 1", repo.filterClassCalls)
	}

	if ok, _ := scope.ContainsClass(ctx, "c4"); ok {
		t.Error("ContainsClass(c4) = true for a foreign class")
	}
}
