package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core/forum"
)

type forumApi struct {
	svc ForumService
}

func registerForumAPI(g *echo.Group, actor []echo.MiddlewareFunc, svc ForumService) {
	api := forumApi{svc: svc}

	fg := g.Group("/forum/posts")

	// un-authed endpoints
	fg.GET("", api.list)

	// authed endpoints
	fg.POST("", api.createPost, actor...)
	fg.POST("/:id/comments", api.addComment, actor...)
}

func (api *forumApi) list(ctx echo.Context) error {
	posts, err := api.svc.ListPosts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	if posts == nil {
		posts = []forum.Post{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"posts": posts})
}

func (api *forumApi) createPost(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data forum.NewPost
	if err := bind(ctx, &data); err != nil {
		return err
	}

	post, err := api.svc.CreatePost(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"post": post})
}

func (api *forumApi) addComment(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data forum.NewComment
	if err := bind(ctx, &data); err != nil {
		return err
	}

	comment, err := api.svc.AddComment(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"comment": comment})
}
