package state

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Storage keys for the two persisted snapshots.
const (
	LibraryKey   = "library"
	FavoritesKey = "favorites"
)

// ErrNotFound is returned by Storage.Load when nothing has been stored under
// the key yet.
var ErrNotFound = errors.New("no stored value")

// Storage is a durable key-value store. Values are always complete
// snapshots; Save replaces the whole value atomically.
type Storage interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// FileStorage stores each key as its own JSON file inside a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to make data directory")
	}

	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStorage) Load(key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to read %s", key)
	}

	return b, nil
}

// Save writes to a temporary file and renames it over the old value, so a
// reader never observes a partially written snapshot.
func (s *FileStorage) Save(key string, data []byte) error {
	tmp := s.path(key) + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", key)
	}

	if err := os.Rename(tmp, s.path(key)); err != nil {
		return errors.Wrapf(err, "failed to replace %s", key)
	}

	return nil
}
