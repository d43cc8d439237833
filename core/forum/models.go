package forum

import (
	"time"

	"github.com/scibridge/scibridge/core"
)

type (
	Post struct {
		ID            string    `json:"id"`
		TranslationID string    `json:"translationId,omitempty"`
		Author        string    `json:"author"`
		AuthorID      string    `json:"authorId,omitempty"`
		Subject       string    `json:"subject"`
		Content       string    `json:"content"`
		CreatedAt     time.Time `json:"createdAt"`
		Comments      []Comment `json:"comments"`
	}

	Comment struct {
		ID            string    `json:"id"`
		TranslationID string    `json:"translationId,omitempty"`
		Author        string    `json:"author"`
		AuthorID      string    `json:"authorId,omitempty"`
		Content       string    `json:"content"`
		CreatedAt     time.Time `json:"createdAt"`
	}
)

type (
	NewPost struct {
		Subject string `json:"subject" validate:"notblank,max=80"`
		Content string `json:"content" validate:"notblank,max=5000"`
	}

	NewComment struct {
		Content string `json:"content" validate:"notblank,max=2000"`
	}
)

func (np *NewPost) clean() {
	np.Subject = core.CleanString(np.Subject)
	np.Content = core.CleanString(np.Content)
}

func (nc *NewComment) clean() {
	nc.Content = core.CleanString(nc.Content)
}
