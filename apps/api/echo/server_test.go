package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/assignment"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/tenant"
	"github.com/napthedev/edura/core/user"
	dummymail "github.com/napthedev/edura/services/email/dummy"
	inmemdb "github.com/napthedev/edura/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                     {}
func (nopLogger) Debug(string, ...interface{})    {}
func (nopLogger) Info(string, ...interface{})     {}
func (nopLogger) Warn(string, ...interface{})     {}
func (nopLogger) Error(string, ...interface{})    {}
func (nopLogger) Critical(string, ...interface{}) {}

type testApp struct {
	server Server
	deps   ServerDeps
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Edura",
		SecretKey: "t3st-s3cret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func setup(t *testing.T) *testApp {
	t.Helper()
	dummymail.Clear()

	conf := newTestConfig()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening inmem db: %v", err)
	}
	mailSvc := dummymail.NewService()

	deps := ServerDeps{
		Conf:          conf,
		Logger:        nopLogger{},
		MailSvc:       mailSvc,
		UserSvc:       user.NewService(inmemdb.NewUserRepository(db), mailSvc, conf),
		ClassSvc:      class.NewService(inmemdb.NewClassRepository(db)),
		TenantSvc:     tenant.NewService(inmemdb.NewTenantRepository(db)),
		AssignmentSvc: assignment.NewService(inmemdb.NewAssignmentRepository(db)),
	}
	return &testApp{server: NewServer(deps), deps: deps}
}

func (app *testApp) createUser(t *testing.T, name, uname, role, managerID string) user.User {
	t.Helper()
	usr, err := app.deps.UserSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           uname + "@test.cd",
		Password:        "s3cret-pwd",
		PasswordConfirm: "s3cret-pwd",
		Role:            role,
		ManagerID:       managerID,
	})
	if err != nil {
		t.Fatalf("creating %s %q: %v", role, uname, err)
	}
	return usr
}

func (app *testApp) createClass(t *testing.T, name, teacherID string) class.Class {
	t.Helper()
	cls, err := app.deps.ClassSvc.Create(context.Background(), class.NewClass{Name: name, TeacherID: teacherID})
	if err != nil {
		t.Fatalf("creating class %q: %v", name, err)
	}
	return cls
}

func (app *testApp) createQuiz(t *testing.T, cls class.Class) assignment.Assignment {
	t.Helper()
	a, err := app.deps.AssignmentSvc.Create(context.Background(), assignment.NewAssignment{
		ClassID:   cls.ID,
		CreatedBy: cls.TeacherID,
		Title:     "Quiz",
		Content: assignment.Content{
			Kind: assignment.KindQuiz,
			Quiz: &assignment.QuizContent{
				Questions: []assignment.Question{
					{ID: "q1", Index: 1, Type: assignment.QuestionSimple, Statement: "Capital of France?", CorrectAnswer: "paris"},
					{ID: "q2", Index: 2, Type: assignment.QuestionTrueFalse, Statement: "Water is wet.", CorrectAnswer: "true"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("creating quiz: %v", err)
	}
	return a
}

func (app *testApp) createWritten(t *testing.T, cls class.Class) assignment.Assignment {
	t.Helper()
	a, err := app.deps.AssignmentSvc.Create(context.Background(), assignment.NewAssignment{
		ClassID:   cls.ID,
		CreatedBy: cls.TeacherID,
		Title:     "Essay",
		Content: assignment.Content{
			Kind:    assignment.KindWritten,
			Written: &assignment.WrittenContent{Instructions: "Write an essay."},
		},
	})
	if err != nil {
		t.Fatalf("creating written assignment: %v", err)
	}
	return a
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(app.deps.Conf, GetUserClaims(app.deps.Conf, usr))
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return token
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}
