package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/tenant"
)

var errClsNotFoundInCtx = errors.New("class object not found in echo.Context")

type classApi struct {
	deps ServerDeps
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classApi{deps: deps}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create, staffMiddleware())
	cg.GET("", api.query, staffMiddleware())

	dg := cg.Group("/:id", classAccessMiddleware(deps))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
}

// Handlers

// create opens a new class. A teacher always creates for themselves; a
// manager may create on behalf of any teacher in their organization.
func (api *classApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	reqCtx := ctx.Request().Context()
	if claims.IsTeacher {
		data.TeacherID = claims.Subject
	} else if err := api.deps.TenantSvc.RequireTeacher(reqCtx, data.TeacherID, claims.ManagerID); err != nil {
		return err
	}

	if err := data.Validate(reqCtx); err != nil {
		return err
	}

	cls, err := api.deps.ClassSvc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

// query lists classes: a teacher sees their own, a manager sees every
// class owned by the organization's teachers.
func (api *classApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	teacherIDs := []string{claims.Subject}
	if claims.IsManager {
		if teacherIDs, err = api.deps.TenantSvc.ResolveTeacherIDs(reqCtx, claims.Subject); err != nil {
			return err
		}
	}

	classes, err := api.deps.ClassSvc.FilterByTeacherIDs(reqCtx, teacherIDs)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClsNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClsNotFoundInCtx, "retrieving object from context")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsTeacher && cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	var data class.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(cls); err != nil {
		return err
	}

	cls, err = api.deps.ClassSvc.Update(ctx.Request().Context(), cls, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	cls, ok := ctx.Get("object").(class.Class)
	if !ok {
		return errors.Wrap(errClsNotFoundInCtx, "retrieving object from context")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsTeacher && cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	if err := api.deps.ClassSvc.Delete(ctx.Request().Context(), cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// classAccessMiddleware loads the target class into the context when it
// belongs to the caller's organization; everything else is a 404.
func classAccessMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			reqCtx := ctx.Request().Context()
			if err := deps.TenantSvc.RequireClass(reqCtx, ctx.Param("id"), claims.ManagerID); err != nil {
				if errors.Cause(err) == tenant.ErrAccessDenied {
					return errHttpNotFound
				}
				return err
			}

			cls, err := deps.ClassSvc.GetByID(reqCtx, ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding class by ID")
			}
			ctx.Set("object", cls)
			return next(ctx)
		}
	}
}
