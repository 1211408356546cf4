// Package storage keeps uploaded and cleaned files as flat files on disk.
//
// Layout:
//
//	<uploads>/<name>           raw upload, overwritten by a later upload of the same name
//	<cleaned>/cleaned_<name>   cleaned output in the upload's format
//
// Names are reduced to their base component before use, so a client can
// never address a file outside the two directories.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// CleanedPrefix is prepended to the upload name to form the cleaned name.
const CleanedPrefix = "cleaned_"

var (
	// ErrInvalidName is returned for names that reduce to nothing usable.
	ErrInvalidName = errors.New("invalid file name")

	// ErrNotFound is returned when a stored file does not exist.
	ErrNotFound = errors.New("file not found")
)

// FileStore reads and writes the uploads and cleaned directories.
type FileStore struct {
	fs         afero.Fs
	uploadDir  string
	cleanedDir string
}

// New returns a FileStore on the OS filesystem, creating both directories.
func New(uploadDir, cleanedDir string) (*FileStore, error) {
	return NewWithFs(afero.NewOsFs(), uploadDir, cleanedDir)
}

// NewWithFs returns a FileStore on fs. Tests pass afero.NewMemMapFs().
func NewWithFs(fs afero.Fs, uploadDir, cleanedDir string) (*FileStore, error) {
	for _, dir := range []string{uploadDir, cleanedDir} {
		if dir == "" {
			return nil, fmt.Errorf("storage directory not set")
		}
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &FileStore{fs: fs, uploadDir: uploadDir, cleanedDir: cleanedDir}, nil
}

// SafeName reduces a client-supplied name to its base component. Both
// slash styles are treated as separators regardless of platform.
func SafeName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	if strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}
	return name, nil
}

// CleanedName returns the cleaned file name for an upload name.
func CleanedName(uploadName string) (string, error) {
	base, err := SafeName(uploadName)
	if err != nil {
		return "", err
	}
	return CleanedPrefix + base, nil
}

// SaveUpload writes r to the uploads directory under the safe form of
// name and returns that name. An existing file is replaced.
func (s *FileStore) SaveUpload(name string, r io.Reader) (string, error) {
	base, err := SafeName(name)
	if err != nil {
		return "", err
	}
	if err := s.writeAtomic(s.uploadDir, base, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	}); err != nil {
		return "", fmt.Errorf("save upload %s: %w", base, err)
	}
	return base, nil
}

// OpenUpload opens a stored upload for reading.
func (s *FileStore) OpenUpload(name string) (afero.File, error) {
	return s.open(s.uploadDir, name)
}

// OpenCleaned opens a cleaned file for reading.
func (s *FileStore) OpenCleaned(name string) (afero.File, error) {
	return s.open(s.cleanedDir, name)
}

// WriteCleaned writes the cleaned file for uploadName through fn and
// returns its name. Output goes to a temporary file that is renamed into
// place only when fn succeeds, so a failed run leaves no partial file and
// keeps any earlier cleaned file intact.
func (s *FileStore) WriteCleaned(uploadName string, fn func(io.Writer) error) (string, error) {
	name, err := CleanedName(uploadName)
	if err != nil {
		return "", err
	}
	if err := s.writeAtomic(s.cleanedDir, name, fn); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// RemoveUpload deletes a stored upload. A missing file is not an error.
func (s *FileStore) RemoveUpload(name string) error {
	base, err := SafeName(name)
	if err != nil {
		return err
	}
	err = s.fs.Remove(filepath.Join(s.uploadDir, base))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload %s: %w", base, err)
	}
	return nil
}

func (s *FileStore) open(dir, name string) (afero.File, error) {
	base, err := SafeName(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(filepath.Join(dir, base))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, base)
		}
		return nil, fmt.Errorf("open %s: %w", base, err)
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, base)
	}
	return f, nil
}

func (s *FileStore) writeAtomic(dir, name string, fn func(io.Writer) error) (err error) {
	tmp := filepath.Join(dir, "."+name+"."+uuid.NewString()+".tmp")
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmp)
		}
	}()

	if err = fn(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return s.fs.Rename(tmp, filepath.Join(dir, name))
}
