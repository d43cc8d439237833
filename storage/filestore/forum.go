package filestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/scibridge/scibridge/core/forum"
)

type forumRepository struct {
	db *collection[forum.Post]
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *DB) forum.Repository {
	return &forumRepository{db: db.posts}
}

func (repo forumRepository) QueryPosts(_ context.Context) ([]forum.Post, error) {
	return queryItems(repo.db)
}

func (repo forumRepository) CreatePost(_ context.Context, p forum.Post) (forum.Post, error) {
	return appendItem(repo.db, p, func(p *forum.Post, id string) { p.ID = id })
}

func (repo forumRepository) AddComment(_ context.Context, postID string, c forum.Comment) (forum.Comment, error) {
	c.ID = uuid.New().String()
	err := repo.db.update(func(posts []forum.Post) ([]forum.Post, error) {
		for i := range posts {
			if posts[i].ID == postID {
				posts[i].Comments = append(posts[i].Comments, c)
				return posts, nil
			}
		}
		return nil, forum.ErrPostNotFound
	})
	if err != nil {
		return forum.Comment{}, err
	}
	return c, nil
}
