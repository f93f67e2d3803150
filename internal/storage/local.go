package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileInfo describes one stored upload.
type FileInfo struct {
	Filename string
	Size     int64
	ModTime  time.Time
}

// LocalStorage keeps uploaded documents as flat files under a single
// directory. Filenames are validated by the HTTP layer before they get here.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Save(filename string, data io.Reader) error {
	f, err := os.Create(s.Path(filename))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(filename))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(s.Path(filename)); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Exists(filename string) bool {
	_, err := os.Stat(s.Path(filename))
	return err == nil
}

// List returns stored files newest first.
func (s *LocalStorage) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Filename: entry.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}

// Path returns the on-disk path for filename.
func (s *LocalStorage) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}
