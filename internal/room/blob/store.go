// Package blob хранит бинарные артефакты сессии: исходное фото, результат
// рендера и сырой ответ модели. Драйверы: fs (по умолчанию), s3, memory.
package blob

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"time"
)

type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ErrNotFound - объекта с таким ключом нет.
var ErrNotFound = errors.New("blob not found")

type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// Store - S3-подобное хранилище. Put перезаписывает существующий ключ.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, []byte, error)
	Head(ctx context.Context, key string) (Info, error)
	Driver() Driver
}

type Config struct {
	Driver Driver
	Root   string // каталог для fs
	S3     S3Config
}

// Open создаёт хранилище по конфигурации.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFS(cfg.Root), nil
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// ============================================================
// Keys
// ============================================================

func SessionPrefix(sessionID string) string {
	return path.Join("sessions", sessionID)
}

func SourceKey(sessionID, ext string) string {
	return path.Join(SessionPrefix(sessionID), "source"+ext)
}

// RenderedKey - фиксированное имя результата, каждый рендер его перезаписывает.
func RenderedKey(sessionID, ext string) string {
	return path.Join(SessionPrefix(sessionID), "rendered"+ext)
}

func AnalysisRawKey(sessionID string) string {
	return path.Join(SessionPrefix(sessionID), "analysis.txt")
}

// ExtensionFor подбирает расширение для MIME-типа.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpeg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
