// Package filestore persists every collection as a JSON file under a data directory.
package filestore

import (
	"os"

	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core/console"
	"github.com/scibridge/scibridge/core/forum"
)

const (
	accountsFile      = "accounts.json"
	announcementsFile = "announcements.json"
	contestsFile      = "contests.json"
	practiceSetsFile  = "practice_sets.json"
	forumFile         = "forum.json"
)

type DB struct {
	dir           string
	accounts      *collection[accountRecord]
	announcements *collection[console.Announcement]
	contests      *collection[console.Contest]
	practiceSets  *collection[console.PracticeSet]
	posts         *collection[forum.Post]
}

// Open creates `dir` if needed and initializes missing collections; the forum starts with its default posts.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating data dir %s", dir)
	}

	db := &DB{
		dir:           dir,
		accounts:      newCollection[accountRecord](dir, accountsFile, nil),
		announcements: newCollection[console.Announcement](dir, announcementsFile, nil),
		contests:      newCollection[console.Contest](dir, contestsFile, nil),
		practiceSets:  newCollection[console.PracticeSet](dir, practiceSetsFile, nil),
		posts:         newCollection[forum.Post](dir, forumFile, forum.DefaultPosts),
	}
	for _, init := range []func() error{
		db.accounts.init,
		db.announcements.init,
		db.contests.init,
		db.practiceSets.init,
		db.posts.init,
	} {
		if err := init(); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Dir returns the data directory.
func (db *DB) Dir() string { return db.dir }
