package filestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/scibridge/scibridge/core/console"
)

type consoleRepository struct {
	announcements *collection[console.Announcement]
	contests      *collection[console.Contest]
	practiceSets  *collection[console.PracticeSet]
}

var _ console.Repository = (*consoleRepository)(nil) // interface compliance check

func NewConsoleRepository(db *DB) console.Repository {
	return &consoleRepository{
		announcements: db.announcements,
		contests:      db.contests,
		practiceSets:  db.practiceSets,
	}
}

// appendItem assigns an ID through setID and appends the item to c.
func appendItem[T any](c *collection[T], item T, setID func(item *T, id string)) (T, error) {
	setID(&item, uuid.New().String())
	err := c.update(func(items []T) ([]T, error) {
		return append(items, item), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

func queryItems[T any](c *collection[T]) ([]T, error) {
	var out []T
	err := c.view(func(items []T) error {
		out = append([]T{}, items...)
		return nil
	})
	return out, err
}

func (repo consoleRepository) CreateAnnouncement(_ context.Context, a console.Announcement) (console.Announcement, error) {
	return appendItem(repo.announcements, a, func(a *console.Announcement, id string) { a.ID = id })
}

func (repo consoleRepository) QueryAnnouncements(_ context.Context) ([]console.Announcement, error) {
	return queryItems(repo.announcements)
}

func (repo consoleRepository) CreateContest(_ context.Context, c console.Contest) (console.Contest, error) {
	return appendItem(repo.contests, c, func(c *console.Contest, id string) { c.ID = id })
}

func (repo consoleRepository) QueryContests(_ context.Context) ([]console.Contest, error) {
	return queryItems(repo.contests)
}

func (repo consoleRepository) CreatePracticeSet(_ context.Context, ps console.PracticeSet) (console.PracticeSet, error) {
	return appendItem(repo.practiceSets, ps, func(ps *console.PracticeSet, id string) { ps.ID = id })
}

func (repo consoleRepository) QueryPracticeSets(_ context.Context) ([]console.PracticeSet, error) {
	return queryItems(repo.practiceSets)
}
