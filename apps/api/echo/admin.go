package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core/console"
)

type adminApi struct {
	svc ConsoleService
}

func registerAdminAPI(g *echo.Group, actor []echo.MiddlewareFunc, svc ConsoleService) {
	api := adminApi{svc: svc}

	ag := g.Group("/admin", actor...)
	ag.GET("/dashboard", api.dashboard)
	ag.PATCH("/users/:id/role", api.updateRole)
	ag.PATCH("/users/:id/status", api.updateStatus)
	ag.POST("/announcements", api.createAnnouncement)
	ag.POST("/contests", api.createContest)
	ag.POST("/practice-sets", api.createPracticeSet)
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	dash, err := api.svc.FetchDashboard(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "fetching dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *adminApi) updateRole(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data console.UpdateRole
	if err := bind(ctx, &data); err != nil {
		return err
	}
	data.UserID = ctx.Param("id")

	prof, err := api.svc.UpdateUserRole(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "updating user role")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": prof})
}

func (api *adminApi) updateStatus(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data console.UpdateStatus
	if err := bind(ctx, &data); err != nil {
		return err
	}
	data.UserID = ctx.Param("id")

	prof, err := api.svc.UpdateUserStatus(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "updating user status")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": prof})
}

func (api *adminApi) createAnnouncement(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data console.NewAnnouncement
	if err := bind(ctx, &data); err != nil {
		return err
	}

	a, err := api.svc.CreateAnnouncement(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"announcement": a})
}

func (api *adminApi) createContest(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data console.NewContest
	if err := bind(ctx, &data); err != nil {
		return err
	}

	c, err := api.svc.CreateContest(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating contest")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"contest": c})
}

func (api *adminApi) createPracticeSet(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data console.NewPracticeSet
	if err := bind(ctx, &data); err != nil {
		return err
	}

	ps, err := api.svc.CreatePracticeSet(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating practice set")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"practiceSet": ps})
}
