package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/user"
)

func TestClassApi(t *testing.T) {
	app := setup(t)
	mgr1 := app.createUser(t, "Manager One", "mgr1", user.RoleManager, "")
	mgr2 := app.createUser(t, "Manager Two", "mgr2", user.RoleManager, "")
	teacher1 := app.createUser(t, "Teacher One", "t1", user.RoleTeacher, mgr1.ID)
	teacher2 := app.createUser(t, "Teacher Two", "t2", user.RoleTeacher, mgr2.ID)
	student1 := app.createUser(t, "Student One", "s1", user.RoleStudent, mgr1.ID)

	mgr1Token := app.getToken(t, mgr1)
	teacher1Token := app.getToken(t, teacher1)

	t.Run("teacher creates their own class", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/classes", teacher1Token, map[string]string{
			"name": "Biology", "subject": "Science",
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var cls class.Class
		decodeBody(t, rec, &cls)
		assert.Equal(t, teacher1.ID, cls.TeacherID)
	})

	t.Run("manager creates for a teacher in their org", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/classes", mgr1Token, map[string]string{
			"name": "Algebra", "teacher_id": teacher1.ID,
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("manager cannot create for a foreign teacher", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/classes", mgr1Token, map[string]string{
			"name": "Algebra", "teacher_id": teacher2.ID,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("students cannot create classes", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/classes", app.getToken(t, student1), map[string]string{"name": "Nope"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	cls1 := app.createClass(t, "Math", teacher1.ID)
	cls2 := app.createClass(t, "History", teacher2.ID)

	t.Run("retrieve inside the org", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/classes/"+cls1.ID, mgr1Token, nil)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("students of the org can read the class", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/classes/"+cls1.ID, app.getToken(t, student1), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("foreign class is a 404", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/classes/"+cls2.ID, mgr1Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing class is a 404", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/classes/ghost", mgr1Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("teacher cannot update someone else's class", func(t *testing.T) {
		other := app.createClass(t, "Chemistry", app.createUser(t, "Teacher Three", "t3", user.RoleTeacher, mgr1.ID).ID)
		rec := app.request(t, http.MethodPut, "/v1/classes/"+other.ID, teacher1Token, map[string]string{"name": "Mine now"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("manager updates any class in the org", func(t *testing.T) {
		rec := app.request(t, http.MethodPut, "/v1/classes/"+cls1.ID, mgr1Token, map[string]string{"name": "Advanced Math"})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated class.Class
		decodeBody(t, rec, &updated)
		assert.Equal(t, "Advanced Math", updated.Name)
	})

	t.Run("query lists the caller's visible classes", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/classes", teacher1Token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var classes []class.Class
		decodeBody(t, rec, &classes)
		for _, cls := range classes {
			assert.Equal(t, teacher1.ID, cls.TeacherID)
		}
		assert.NotEmpty(t, classes)
	})

	t.Run("delete cascades and hides the class", func(t *testing.T) {
		doomed := app.createClass(t, "Doomed", teacher1.ID)
		rec := app.request(t, http.MethodDelete, "/v1/classes/"+doomed.ID, mgr1Token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.request(t, http.MethodGet, "/v1/classes/"+doomed.ID, mgr1Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
