package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/scibridge/scibridge/core/console"
)

type consoleRepository struct {
	db *contentTable
}

func NewConsoleRepository(db *DB) console.Repository {
	return &consoleRepository{db: db.content}
}

func (repo *consoleRepository) CreateAnnouncement(_ context.Context, a console.Announcement) (console.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.announcements = append(repo.db.announcements, a)
	return a, nil
}

func (repo *consoleRepository) QueryAnnouncements(_ context.Context) ([]console.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]console.Announcement{}, repo.db.announcements...), nil
}

func (repo *consoleRepository) CreateContest(_ context.Context, c console.Contest) (console.Contest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = uuid.New().String()
	repo.db.contests = append(repo.db.contests, c)
	return c, nil
}

func (repo *consoleRepository) QueryContests(_ context.Context) ([]console.Contest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]console.Contest{}, repo.db.contests...), nil
}

func (repo *consoleRepository) CreatePracticeSet(_ context.Context, ps console.PracticeSet) (console.PracticeSet, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ps.ID = uuid.New().String()
	repo.db.practiceSets = append(repo.db.practiceSets, ps)
	return ps, nil
}

func (repo *consoleRepository) QueryPracticeSets(_ context.Context) ([]console.PracticeSet, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]console.PracticeSet{}, repo.db.practiceSets...), nil
}
