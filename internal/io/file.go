package ioutils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/handiism/apod-downloader/internal/model"
)

// ImageExt is the extension of every stored image.
const ImageExt = ".jpg"

// ImageDir returns the directory holding images for date:
// root/<year>/<month>, with year and month not zero-padded.
//
// Example:
//
//	ImageDir("/pics", date) // "/pics/2017/8" for 2017-08-21
func ImageDir(root string, date model.Date) string {
	return filepath.Join(root, strconv.Itoa(date.Year), strconv.Itoa(int(date.Month)))
}

// ImagePath returns where the image for date is stored:
// root/<year>/<month>/<YYYY-MM-DD>.jpg.
//
// The result depends only on root and date.
//
// Example:
//
//	ImagePath("/pics", date) // "/pics/1998/3/1998-03-28.jpg" for 1998-03-28
func ImagePath(root string, date model.Date) string {
	return filepath.Join(ImageDir(root, date), date.ISO()+ImageExt)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/pics/1998/3")
//	// Creates /pics, /pics/1998, and /pics/1998/3 if needed
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory that is renamed into place.
//
// An existing file at path is replaced. If anything fails the temporary file
// is removed and path is left untouched, so readers never see a partial file.
func WriteFileAtomic(ctx context.Context, path string, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Store saves images under a root directory, one folder per year and month.
//
// Example usage:
//
//	store := NewStore("/home/me/Pictures/APOD")
//	path, err := store.Save(ctx, date, imageData)
//	// path = "/home/me/Pictures/APOD/1998/3/1998-03-28.jpg"
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at root. An empty root means the current
// working directory.
func NewStore(root string) *Store {
	return &Store{root: root, logger: slog.Default()}
}

// WithLogger returns the store with l as its logger.
func (s *Store) WithLogger(l *slog.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

// Root returns the resolved root directory.
func (s *Store) Root() (string, error) {
	if s.root != "" {
		return s.root, nil
	}
	return os.Getwd()
}

// PathFor returns where Save would put the image for date.
func (s *Store) PathFor(date model.Date) (string, error) {
	root, err := s.Root()
	if err != nil {
		return "", fmt.Errorf("%w: resolving root: %v", model.ErrStorage, err)
	}
	return ImagePath(root, date), nil
}

// Save writes data as the image for date and returns the path written.
//
// The year and month directories are created when missing; existing ones are
// reused. An existing image for the same date is overwritten.
//
// Returns an error wrapping model.ErrStorage on permission or disk errors.
func (s *Store) Save(ctx context.Context, date model.Date, data []byte) (string, error) {
	path, err := s.PathFor(date)
	if err != nil {
		return "", err
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("%w: creating directory: %v", model.ErrStorage, err)
	}

	if err := WriteFileAtomic(ctx, path, data); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", model.ErrStorage, path, err)
	}

	s.logger.Debug("image saved",
		slog.String("path", path),
		slog.Int("bytes", len(data)))

	return path, nil
}
