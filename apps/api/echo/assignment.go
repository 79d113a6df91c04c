package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/assignment"
	"github.com/napthedev/edura/core/tenant"
)

var errAsgNotFoundInCtx = errors.New("assignment object not found in echo.Context")

type assignmentApi struct {
	deps ServerDeps
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{deps: deps}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create, staffMiddleware())
	ag.GET("", api.query)

	dg := ag.Group("/:id", assignmentAccessMiddleware(deps))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())

	dg.POST("/submissions", api.submit, studentMiddleware())
	dg.GET("/submissions", api.querySubmissions, staffMiddleware())
	dg.GET("/submissions/mine", api.retrieveOwnSubmission, studentMiddleware())

	sg := g.Group("/submissions", jwt)
	sg.POST("/:id/grade", api.gradeSubmission, staffMiddleware())
}

// Handlers

// create authors a new assignment on a class inside the caller's
// organization. The owning teacher is always the class's teacher, even
// when a manager authors on their behalf.
func (api *assignmentApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	reqCtx := ctx.Request().Context()
	if err := api.deps.TenantSvc.RequireClass(reqCtx, data.ClassID, claims.ManagerID); err != nil {
		if errors.Cause(err) == tenant.ErrAccessDenied {
			return errHttpNotFound
		}
		return err
	}
	cls, err := api.deps.ClassSvc.GetByID(reqCtx, data.ClassID)
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}
	if claims.IsTeacher && cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}
	data.CreatedBy = cls.TeacherID

	if err := data.Validate(reqCtx); err != nil {
		return err
	}

	a, err := api.deps.AssignmentSvc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// query lists the assignments of one class. The class must be inside the
// caller's organization whatever their role.
func (api *assignmentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	classID := ctx.QueryParam("class_id")
	if classID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this query parameter is required"})
	}

	reqCtx := ctx.Request().Context()
	if err := api.deps.TenantSvc.RequireClass(reqCtx, classID, claims.ManagerID); err != nil {
		if errors.Cause(err) == tenant.ErrAccessDenied {
			return errHttpNotFound
		}
		return err
	}

	assignments, err := api.deps.AssignmentSvc.FilterByClassID(reqCtx, classID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsTeacher && a.CreatedBy != claims.Subject {
		return errHttpForbidden
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(a); err != nil {
		return err
	}

	a, err = api.deps.AssignmentSvc.Update(ctx.Request().Context(), a, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsTeacher && a.CreatedBy != claims.Subject {
		return errHttpForbidden
	}

	if err := api.deps.AssignmentSvc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// submit records the calling student's one-shot submission.
func (api *assignmentApi) submit(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data assignment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.StudentID = claims.Subject
	data.AllowLate = api.deps.Conf.Server.AllowLateSubmissions

	sub, err := api.deps.AssignmentSvc.Submit(ctx.Request().Context(), a, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}

	subs, err := api.deps.AssignmentSvc.FilterSubmissionsByAssignmentID(ctx.Request().Context(), a.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []assignment.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) retrieveOwnSubmission(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assignment.Assignment)
	if !ok {
		return errors.Wrap(errAsgNotFoundInCtx, "retrieving object from context")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.deps.AssignmentSvc.GetSubmission(ctx.Request().Context(), a.ID, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

// gradeSubmission applies a teacher's grade to a written submission and
// notifies the student by email.
func (api *assignmentApi) gradeSubmission(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	sub, err := api.deps.AssignmentSvc.GetSubmissionByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	a, err := api.deps.AssignmentSvc.GetByID(reqCtx, sub.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	if err := api.deps.TenantSvc.RequireClass(reqCtx, a.ClassID, claims.ManagerID); err != nil {
		if errors.Cause(err) == tenant.ErrAccessDenied {
			return errHttpNotFound
		}
		return err
	}
	if claims.IsTeacher && a.CreatedBy != claims.Subject {
		return errHttpForbidden
	}

	var data assignment.ManualGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManualGrade")
	}

	sub, err = api.deps.AssignmentSvc.GradeManually(reqCtx, a, sub, data)
	if err != nil {
		return err
	}

	api.sendGradedEmail(ctx, a, sub)
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) sendGradedEmail(ctx echo.Context, a assignment.Assignment, sub assignment.Submission) {
	if api.deps.MailSvc == nil {
		return
	}
	student, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), sub.StudentID)
	if err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "finding graded student"))
		return
	}

	body := fmt.Sprintf("Hi %s,\n\nYour submission for %q has been graded: %d/100.", student.Name, a.Title, sub.Grade.Int)
	if sub.Feedback.Valid {
		body += "\n\nFeedback: " + sub.Feedback.String
	}
	api.deps.MailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: "Your work has been graded",
		BodyStr: body,
	})
}

// assignmentAccessMiddleware loads the target assignment into the context
// when its class belongs to the caller's organization; everything else is
// a 404.
func assignmentAccessMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			reqCtx := ctx.Request().Context()
			a, err := deps.AssignmentSvc.GetByID(reqCtx, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == assignment.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding assignment by ID")
			}

			if err := deps.TenantSvc.RequireClass(reqCtx, a.ClassID, claims.ManagerID); err != nil {
				if errors.Cause(err) == tenant.ErrAccessDenied {
					return errHttpNotFound
				}
				return err
			}
			ctx.Set("object", a)
			return next(ctx)
		}
	}
}
