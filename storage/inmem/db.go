// Package inmemdb keeps every collection in process memory. Data is lost on restart.
package inmemdb

import (
	"sync"

	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/console"
	"github.com/scibridge/scibridge/core/forum"
)

type (
	accountTable struct {
		mutex sync.RWMutex
		table map[string]*account.Account // {id: account}
	}

	contentTable struct {
		mutex         sync.RWMutex
		announcements []console.Announcement
		contests      []console.Contest
		practiceSets  []console.PracticeSet
	}

	forumTable struct {
		mutex sync.RWMutex
		posts []forum.Post
	}

	DB struct {
		account *accountTable
		content *contentTable
		forum   *forumTable
	}
)

// Open returns an empty database. Posts, when given, seed the forum.
func Open(posts ...forum.Post) *DB {
	return &DB{
		account: &accountTable{table: make(map[string]*account.Account)},
		content: &contentTable{},
		forum:   &forumTable{posts: append([]forum.Post(nil), posts...)},
	}
}
