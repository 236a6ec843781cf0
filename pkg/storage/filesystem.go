package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrInvalidPath is returned for names that would escape the base directory.
var ErrInvalidPath = errors.New("invalid storage path")

// ErrNotExist is returned when a stored file is missing.
var ErrNotExist = os.ErrNotExist

// FileInfo describes a stored file relative to the storage root.
type FileInfo struct {
	Name       string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes the given bytes to the provided relative path under the base dir.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return name, nil
}

// SaveStream copies at most limit bytes from r into the target path and
// returns the number of bytes written. A limit <= 0 disables the cap. When the
// stream exceeds the limit the partial file is removed and ErrTooLarge is returned.
func (s *LocalStorage) SaveStream(name string, r io.Reader, limit int64) (int64, error) {
	path, err := s.resolve(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, err := io.Copy(file, src)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && limit > 0 && written > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return 0, err
		}
		return 0, fmt.Errorf("write file stream: %w", err)
	}
	return written, nil
}

// ErrTooLarge signals that a stream exceeded the SaveStream limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Stat returns metadata for a stored file.
func (s *LocalStorage) Stat(name string) (*FileInfo, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("stat file: %w", ErrNotExist)
	}
	return &FileInfo{
		Name:       filepath.Base(name),
		Path:       filepath.ToSlash(name),
		Size:       info.Size(),
		ModifiedAt: info.ModTime().UTC(),
	}, nil
}

// List returns the regular files directly inside dir, newest first. A missing
// directory yields an empty list.
func (s *LocalStorage) List(dir string) ([]FileInfo, error) {
	path, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("list files: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		files = append(files, FileInfo{
			Name:       entry.Name(),
			Path:       filepath.ToSlash(filepath.Join(dir, entry.Name())),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModifiedAt.After(files[j].ModifiedAt) })
	return files, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Path exposes the underlying path for a stored name.
func (s *LocalStorage) Path(name string) (string, error) {
	return s.resolve(name)
}

// resolve maps a relative name onto the base directory and rejects absolute
// paths and parent traversal.
func (s *LocalStorage) resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", ErrInvalidPath
	}
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
