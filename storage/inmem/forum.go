package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/scibridge/scibridge/core/forum"
)

type forumRepository struct {
	db *forumTable
}

func NewForumRepository(db *DB) forum.Repository {
	return &forumRepository{db: db.forum}
}

func (repo *forumRepository) QueryPosts(_ context.Context) ([]forum.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	posts := make([]forum.Post, 0, len(repo.db.posts))
	for _, p := range repo.db.posts {
		p.Comments = append([]forum.Comment{}, p.Comments...)
		posts = append(posts, p)
	}
	return posts, nil
}

func (repo *forumRepository) CreatePost(_ context.Context, p forum.Post) (forum.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	repo.db.posts = append(repo.db.posts, p)
	return p, nil
}

func (repo *forumRepository) AddComment(_ context.Context, postID string, c forum.Comment) (forum.Comment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i := range repo.db.posts {
		if repo.db.posts[i].ID == postID {
			c.ID = uuid.New().String()
			repo.db.posts[i].Comments = append(repo.db.posts[i].Comments, c)
			return c, nil
		}
	}
	return forum.Comment{}, forum.ErrPostNotFound
}
