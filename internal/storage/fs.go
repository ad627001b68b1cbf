package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".txt"

// FileStore keeps one text file per cell in a directory. Claims use
// exclusive create, which is atomic on local filesystems; on network
// filesystems without O_EXCL semantics two scanners may both claim a
// cell and compute it twice, which is harmless.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.baseDir, key+fileExt)
}

func (s *FileStore) Claim(ctx context.Context, key string) (bool, error) {
	f, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("claim", key, err)
	}
	if err := f.Close(); err != nil {
		return false, unavailable("claim", key, err)
	}
	return true, nil
}

// Complete writes to a temporary file and renames it over the marker, so
// readers never see a partial result.
func (s *FileStore) Complete(ctx context.Context, key string, r Result) error {
	data := r.Text()

	tmp, err := os.CreateTemp(s.baseDir, key+".*.tmp")
	if err != nil {
		return unavailable("complete", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return unavailable("complete", key, err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("complete", key, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return unavailable("complete", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return unavailable("complete", key, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, key string) (Entry, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, unavailable("load", key, err)
	}
	return decodeEntry(key, data), nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("delete", key, err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, unavailable("list", s.baseDir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key := strings.TrimSuffix(name, fileExt)
		data, err := os.ReadFile(filepath.Join(s.baseDir, name))
		if errors.Is(err, fs.ErrNotExist) {
			// deleted between ReadDir and ReadFile
			continue
		}
		if err != nil {
			return nil, unavailable("list", key, err)
		}
		entries = append(entries, decodeEntry(key, data))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (s *FileStore) Close() error { return nil }
