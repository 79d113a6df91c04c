package user

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
)

type fakeRepo struct {
	usernames map[string]bool
	emails    map[string]bool
	created   []User
}

var _ Repository = (*fakeRepo)(nil)

func (r *fakeRepo) CheckUsernameUniqueness(_ context.Context, username, email string, _ ...User) error {
	if r.usernames[username] {
		return ErrUsernameExists
	}
	if r.emails[email] {
		return ErrEmailExists
	}
	return nil
}

func (r *fakeRepo) CreateUser(_ context.Context, usr User) (User, error) {
	usr.ID = "usr1"
	r.created = append(r.created, usr)
	return usr, nil
}

func (r *fakeRepo) GetUserByID(_ context.Context, id string) (User, error) {
	return User{}, ErrNotFound
}

func (r *fakeRepo) GetUserByUsernameOrEmail(_ context.Context, _ string) (User, error) {
	return User{}, ErrNotFound
}

func (r *fakeRepo) FilterUsers(_ context.Context, _ QueryFilter) ([]User, error) { return nil, nil }

func (r *fakeRepo) UpdateUser(_ context.Context, usr User, isActive *bool) (User, error) {
	if isActive != nil {
		usr.IsActive = *isActive
	}
	return usr, nil
}

func (r *fakeRepo) DeleteUsersByID(_ context.Context, _ ...string) error { return nil }

func TestUser_password(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cret-pwd"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := usr.CheckPassword("s3cret-pwd"); err != nil {
		t.Errorf("CheckPassword() with the right password failed: %v", err)
	}
	if err := usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() with a wrong password succeeded")
	}
}

func TestNewUser_Validate(t *testing.T) {
	repo := &fakeRepo{
		usernames: map[string]bool{"taken": true},
		emails:    map[string]bool{"taken@test.cd": true},
	}
	svc := NewService(repo, nil, &core.Config{AppName: "Edura"})
	ctx := context.Background()

	valid := NewUser{
		Name:            "Jane",
		Username:        "jane",
		Email:           "jane@test.cd",
		Password:        "s3cret-pwd",
		PasswordConfirm: "s3cret-pwd",
		Role:            RoleTeacher,
		ManagerID:       "mgr1",
	}

	t.Run("valid", func(t *testing.T) {
		nu := valid
		if err := nu.Validate(ctx, svc); err != nil {
			t.Errorf("Validate() failed: %v", err)
		}
	})

	t.Run("cleans and lowercases", func(t *testing.T) {
		nu := valid
		nu.Username = "  JANE "
		nu.Email = " JANE@Test.CD "
		if err := nu.Validate(ctx, svc); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if nu.Username != "jane" || nu.Email != "jane@test.cd" {
			t.Errorf("Validate() did not clean: %q, %q", nu.Username, nu.Email)
		}
	})

	t.Run("manager does not need a manager id", func(t *testing.T) {
		nu := valid
		nu.Role = RoleManager
		nu.ManagerID = ""
		if err := nu.Validate(ctx, svc); err != nil {
			t.Errorf("Validate() failed: %v", err)
		}
	})

	t.Run("teacher needs a manager id", func(t *testing.T) {
		nu := valid
		nu.ManagerID = ""
		if err := nu.Validate(ctx, svc); err == nil {
			t.Error("Validate() succeeded without a manager id")
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		nu := valid
		nu.Role = "janitor"
		if err := nu.Validate(ctx, svc); err == nil {
			t.Error("Validate() succeeded with an unknown role")
		}
	})

	t.Run("taken username is a field error", func(t *testing.T) {
		nu := valid
		nu.Username = "taken"
		err := nu.Validate(ctx, svc)
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		if !ok {
			t.Fatalf("Validate() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "username" {
			t.Errorf("Validate() fields = %+v, want [username]", vErr.Fields)
		}
	})
}

func TestService_Create_managerSelfReference(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, &core.Config{AppName: "Edura"})

	usr, err := svc.Create(context.Background(), NewUser{
		Name:            "Boss",
		Username:        "boss",
		Email:           "boss@test.cd",
		Password:        "s3cret-pwd",
		PasswordConfirm: "s3cret-pwd",
		Role:            RoleManager,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if usr.ManagerID.String != usr.ID {
		t.Errorf("Create() manager reference = %q, want self (%q)", usr.ManagerID.String, usr.ID)
	}

	teacher, err := svc.Create(context.Background(), NewUser{
		Name:            "Teach",
		Username:        "teach",
		Email:           "teach@test.cd",
		Password:        "s3cret-pwd",
		PasswordConfirm: "s3cret-pwd",
		Role:            RoleTeacher,
		ManagerID:       usr.ID,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if teacher.ManagerID.String != usr.ID {
		t.Errorf("Create() teacher manager = %q, want %q", teacher.ManagerID.String, usr.ID)
	}
}
