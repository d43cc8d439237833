package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/scibridge/scibridge/core"
)

// collection is one JSON array file. Every access holds mu for goroutines of this process
// and an advisory lock on a sibling `.lock` file for other processes sharing the directory.
type collection[T any] struct {
	mu   sync.Mutex
	path string
	file *flock.Flock
	seed func() ([]T, error) // initial content when the file does not exist
}

func newCollection[T any](dir, name string, seed func() ([]T, error)) *collection[T] {
	path := filepath.Join(dir, name)
	return &collection[T]{path: path, file: flock.New(path + ".lock"), seed: seed}
}

// lock takes both locks. The returned func releases them.
func (c *collection[T]) lock() (func(), error) {
	c.mu.Lock()
	if err := c.file.Lock(); err != nil {
		c.mu.Unlock()
		return nil, errors.Wrapf(err, "locking %s", c.file.Path())
	}
	return func() {
		_ = c.file.Unlock()
		c.mu.Unlock()
	}, nil
}

// init writes the seed when the file is missing.
func (c *collection[T]) init() error {
	unlock, err := c.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %s", c.path)
	}
	var items []T
	if c.seed != nil {
		seeded, err := c.seed()
		if err != nil {
			return err
		}
		items = seeded
	}
	return c.writeAll(items)
}

// readAll loads the file; callers hold the locks. A missing file reads as empty.
// A file that no longer decodes is reported as a shutdown error.
func (c *collection[T]) readAll() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", c.path)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, core.NewShutdownError(fmt.Sprintf("corrupt store file %s: %v", c.path, err))
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// writeAll replaces the file atomically: readers see either the old or the new content.
func (c *collection[T]) writeAll(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", c.path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "syncing %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmpPath)
	}
	return errors.Wrapf(os.Rename(tmpPath, c.path), "replacing %s", c.path)
}

// view runs fn on a snapshot of the collection.
func (c *collection[T]) view(fn func(items []T) error) error {
	unlock, err := c.lock()
	if err != nil {
		return err
	}
	defer unlock()

	items, err := c.readAll()
	if err != nil {
		return err
	}
	return fn(items)
}

// update runs a read-modify-write cycle. Nothing is written when fn fails.
func (c *collection[T]) update(fn func(items []T) ([]T, error)) error {
	unlock, err := c.lock()
	if err != nil {
		return err
	}
	defer unlock()

	items, err := c.readAll()
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return c.writeAll(items)
}
