package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scibridge/scibridge/core/forum"
)

func TestForumAPI(t *testing.T) {
	f := setup(t)

	t.Run("list seeded posts", func(t *testing.T) {
		rec := do(f.app, httpTest{method: http.MethodGet, path: "/api/forum/posts"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Posts []forum.Post `json:"posts"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Posts, 3)
		for i := 1; i < len(resp.Posts); i++ {
			assert.False(t, resp.Posts[i].CreatedAt.After(resp.Posts[i-1].CreatedAt), "newest first")
		}
	})

	tests := []httpTest{
		{
			name:     "anonymous post",
			method:   http.MethodPost,
			path:     "/api/forum/posts",
			body:     []byte(`{"subject":"Hi","content":"Hello"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Message: "Sign in to continue."}),
		},
		{
			name:     "subject too long",
			method:   http.MethodPost,
			path:     "/api/forum/posts",
			email:    f.student.Email,
			body:     []byte(`{"subject":"` + longSubject + `","content":"Hello"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "comment on missing post",
			method:   http.MethodPost,
			path:     "/api/forum/posts/missing/comments",
			email:    f.student.Email,
			body:     []byte(`{"content":"Nice"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "Post not found."}),
		},
		{
			name:     "blank comment",
			method:   http.MethodPost,
			path:     "/api/forum/posts/post-1/comments",
			email:    f.student.Email,
			body:     []byte(`{"content":"  "}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, do(f.app, tt))
		})
	}

	t.Run("post and comment", func(t *testing.T) {
		rec := do(f.app, httpTest{
			method: http.MethodPost,
			path:   "/api/forum/posts",
			email:  f.student.Email,
			body:   []byte(`{"subject":"Why is the sky blue?","content":"Rayleigh scattering?"}`),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created struct {
			Post forum.Post `json:"post"`
		}
		decode(t, rec, &created)
		assert.Equal(t, "Leo", created.Post.Author)
		assert.Equal(t, f.student.ID, created.Post.AuthorID)

		rec = do(f.app, httpTest{
			method: http.MethodPost,
			path:   "/api/forum/posts/" + created.Post.ID + "/comments",
			email:  f.teacher.Email,
			body:   []byte(`{"content":"Exactly right."}`),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var comment struct {
			Comment forum.Comment `json:"comment"`
		}
		decode(t, rec, &comment)
		assert.Equal(t, "Ms. Lopez", comment.Comment.Author)

		rec = do(f.app, httpTest{method: http.MethodGet, path: "/api/forum/posts"})
		var resp struct {
			Posts []forum.Post `json:"posts"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp.Posts, 4)
		assert.Equal(t, created.Post.ID, resp.Posts[0].ID)
		require.Len(t, resp.Posts[0].Comments, 1)
		assert.Equal(t, "Exactly right.", resp.Posts[0].Comments[0].Content)
	})
}

const longSubject = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt"
