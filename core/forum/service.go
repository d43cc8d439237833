// Package forum is the community discussion board: posts and their comments.
package forum

import (
	"context"
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
)

var (
	nowFunc = time.Now // mockable

	ErrPostNotFound = errors.New("post not found")
)

type (
	Repository interface {
		QueryPosts(ctx context.Context) ([]Post, error)
		// CreatePost assigns the post ID.
		CreatePost(ctx context.Context, p Post) (Post, error)
		// AddComment assigns the comment ID, failing with ErrPostNotFound for unknown posts.
		AddComment(ctx context.Context, postID string, c Comment) (Comment, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(translator, "translator"),
	).CheckAndPanic()

	return &Service{repo: repo, validate: validate, translator: translator}
}

func (svc *Service) validateStruct(s interface{}) error {
	if err := svc.validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return core.NewValidationError(nil, core.TranslateValidationErrors(verrs, svc.translator)...)
		}
		return err
	}
	return nil
}

// ListPosts returns every post, newest first, with comments oldest first.
func (svc *Service) ListPosts(ctx context.Context) ([]Post, error) {
	posts, err := svc.repo.QueryPosts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	for i := range posts {
		if posts[i].Comments == nil {
			posts[i].Comments = []Comment{}
		}
		comments := posts[i].Comments
		sort.SliceStable(comments, func(a, b int) bool { return comments[a].CreatedAt.Before(comments[b].CreatedAt) })
	}
	return posts, nil
}

func (svc *Service) CreatePost(ctx context.Context, author account.Account, np NewPost) (Post, error) {
	if !author.CanSignIn() {
		return Post{}, authz.ErrForbidden
	}
	np.clean()
	if err := svc.validateStruct(np); err != nil {
		return Post{}, err
	}
	return svc.repo.CreatePost(ctx, Post{
		Author:    author.Name,
		AuthorID:  author.ID,
		Subject:   np.Subject,
		Content:   np.Content,
		CreatedAt: nowFunc().UTC(),
		Comments:  []Comment{},
	})
}

func (svc *Service) AddComment(ctx context.Context, author account.Account, postID string, nc NewComment) (Comment, error) {
	if !author.CanSignIn() {
		return Comment{}, authz.ErrForbidden
	}
	nc.clean()
	if err := svc.validateStruct(nc); err != nil {
		return Comment{}, err
	}
	return svc.repo.AddComment(ctx, core.CleanString(postID), Comment{
		Author:    author.Name,
		AuthorID:  author.ID,
		Content:   nc.Content,
		CreatedAt: nowFunc().UTC(),
	})
}
