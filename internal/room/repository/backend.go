// Package repository хранит документы раскладки как пары ключ → JSON.
// Драйверы: memory (тесты), sqlite (по умолчанию), postgres, redis.
package repository

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound - ключа нет в хранилище.
var ErrNotFound = errors.New("not found")

// Backend - минимальное key-value хранилище документов.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverRedis    Driver = "redis"
)

// Config описывает подключение к выбранному драйверу.
type Config struct {
	Driver    Driver
	DSN       string // путь к файлу sqlite или DSN postgres
	RedisAddr string
	RedisDB   int
	RedisPass string
}

// Open открывает backend по конфигурации и прогоняет миграции.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		db, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo := New(db, DialectSQLite)
		if err := repo.Init(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return repo, nil
	case DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := New(db, DialectPostgres)
		if err := repo.Init(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return repo, nil
	case DriverRedis:
		return NewRedis(ctx, RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Password: cfg.RedisPass})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
