package forum

import (
	"encoding/json"

	"github.com/pkg/errors"

	appfs "github.com/scibridge/scibridge/fs"
)

// DefaultPosts returns the posts a fresh forum starts with.
func DefaultPosts() ([]Post, error) {
	data, err := appfs.FS.ReadFile(appfs.ForumSeedFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading forum seed")
	}
	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, errors.Wrap(err, "decoding forum seed")
	}
	return posts, nil
}
