package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ============================================================
// File Storage
// ============================================================

type FileStorage struct {
	root string
}

func NewFS(root string) *FileStorage {
	if root == "" {
		root = "data/blobs"
	}
	return &FileStorage{root: root}
}

func (s *FileStorage) Driver() Driver { return DriverFilesystem }

// Path возвращает путь файла для ключа. Ключи вне root отклоняются.
func (s *FileStorage) Path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FileStorage) Put(_ context.Context, key string, data []byte, contentType string) (Info, error) {
	target, err := s.Path(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Info{}, fmt.Errorf("mkdir blob dir: %w", err)
	}
	// Пишем во временный файл и переименовываем, чтобы читатель не увидел половину.
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Info{}, fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return Info{}, fmt.Errorf("rename blob: %w", err)
	}
	return s.Head(context.Background(), key)
}

func (s *FileStorage) Get(ctx context.Context, key string) (Info, []byte, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return Info{}, nil, err
	}
	target, _ := s.Path(key)
	data, err := os.ReadFile(target)
	if err != nil {
		return Info{}, nil, fmt.Errorf("read blob: %w", err)
	}
	return info, data, nil
}

func (s *FileStorage) Head(_ context.Context, key string) (Info, error) {
	target, err := s.Path(key)
	if err != nil {
		return Info{}, err
	}
	st, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, ErrNotFound
		}
		return Info{}, err
	}
	return Info{
		Key:          key,
		Size:         st.Size(),
		ContentType:  contentTypeFor(key),
		LastModified: st.ModTime().UTC(),
	}, nil
}
