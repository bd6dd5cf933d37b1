package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `toml:"port"`
	Environment  string `toml:"env"`
	LogLevel     string `toml:"log_level"`
	ReadTimeout  int    `toml:"read_timeout"`
	WriteTimeout int    `toml:"write_timeout"`

	Store    StoreConfig    `toml:"store"`
	Blob     BlobConfig     `toml:"blob"`
	Layout   LayoutConfig   `toml:"layout"`
	Upstream UpstreamConfig `toml:"upstream"`
	Upload   UploadConfig   `toml:"upload"`
}

type StoreConfig struct {
	Driver    string `toml:"driver"` // memory | sqlite | postgres | redis
	DSN       string `toml:"dsn"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	RedisPass string `toml:"redis_password"`
}

type BlobConfig struct {
	Driver      string `toml:"driver"` // fs | s3 | memory
	Root        string `toml:"root"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Region    string `toml:"s3_region"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3PathStyle bool   `toml:"s3_path_style"`
}

type LayoutConfig struct {
	RangePolicy     string `toml:"range_policy"` // reject | clamp
	MergeBase       string `toml:"merge_base"`   // current | original
	ValidateOnMerge bool   `toml:"validate_on_merge"`
}

type UpstreamConfig struct {
	GeminiAPIKey   string `toml:"gemini_api_key"`
	VisionModel    string `toml:"vision_model"`
	ImageModel     string `toml:"image_model"`
	AnalyzeTimeout int    `toml:"analyze_timeout"` // секунды
	RenderTimeout  int    `toml:"render_timeout"`  // секунды
	RenderDriver   string `toml:"render_driver"`   // gemini | sketch | remote
	RenderURL      string `toml:"render_url"`
	Fixture        string `toml:"fixture"` // файл с готовым ответом анализатора
}

type UploadConfig struct {
	MaxBytes int64 `toml:"max_bytes"`
}

// Defaults возвращает конфигурацию по умолчанию.
func Defaults() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		LogLevel:     "info",
		ReadTimeout:  10,
		WriteTimeout: 150,
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "data/db/rooms.db",
		},
		Blob: BlobConfig{
			Driver: "fs",
			Root:   "data/blobs",
		},
		Layout: LayoutConfig{
			RangePolicy:     "reject",
			MergeBase:       "current",
			ValidateOnMerge: true,
		},
		Upstream: UpstreamConfig{
			VisionModel:    "gemini-2.5-flash",
			ImageModel:     "gemini-2.5-flash-image",
			AnalyzeTimeout: 60,
			RenderTimeout:  120,
			RenderDriver:   "gemini",
		},
		Upload: UploadConfig{MaxBytes: 5 << 20},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем TOML-файл из
// ROOM_CONFIG (если задан), затем переменные окружения.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("ROOM_CONFIG"); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile накладывает TOML-файл на cfg. Отсутствующие ключи не трогаются.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)

	cfg.Store.Driver = getEnv("ROOM_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = getEnv("ROOM_STORE_DSN", cfg.Store.DSN)
	cfg.Store.RedisAddr = getEnv("ROOM_REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisDB = getEnvAsInt("ROOM_REDIS_DB", cfg.Store.RedisDB)
	cfg.Store.RedisPass = getEnv("ROOM_REDIS_PASSWORD", cfg.Store.RedisPass)

	cfg.Blob.Driver = getEnv("ROOM_BLOB_DRIVER", cfg.Blob.Driver)
	cfg.Blob.Root = getEnv("ROOM_BLOB_ROOT", cfg.Blob.Root)
	cfg.Blob.S3Bucket = getEnv("ROOM_S3_BUCKET", cfg.Blob.S3Bucket)
	cfg.Blob.S3Region = getEnv("ROOM_S3_REGION", cfg.Blob.S3Region)
	cfg.Blob.S3Endpoint = getEnv("ROOM_S3_ENDPOINT", cfg.Blob.S3Endpoint)
	cfg.Blob.S3PathStyle = getEnvAsBool("ROOM_S3_PATH_STYLE", cfg.Blob.S3PathStyle)

	cfg.Layout.RangePolicy = getEnv("ROOM_RANGE_POLICY", cfg.Layout.RangePolicy)
	cfg.Layout.MergeBase = getEnv("ROOM_MERGE_BASE", cfg.Layout.MergeBase)
	cfg.Layout.ValidateOnMerge = getEnvAsBool("ROOM_VALIDATE_ON_MERGE", cfg.Layout.ValidateOnMerge)

	cfg.Upstream.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.Upstream.GeminiAPIKey)
	cfg.Upstream.VisionModel = getEnv("ROOM_VISION_MODEL", cfg.Upstream.VisionModel)
	cfg.Upstream.ImageModel = getEnv("ROOM_IMAGE_MODEL", cfg.Upstream.ImageModel)
	cfg.Upstream.AnalyzeTimeout = getEnvAsInt("ROOM_ANALYZE_TIMEOUT", cfg.Upstream.AnalyzeTimeout)
	cfg.Upstream.RenderTimeout = getEnvAsInt("ROOM_RENDER_TIMEOUT", cfg.Upstream.RenderTimeout)
	cfg.Upstream.RenderDriver = getEnv("ROOM_RENDER_DRIVER", cfg.Upstream.RenderDriver)
	cfg.Upstream.RenderURL = getEnv("ROOM_RENDER_URL", cfg.Upstream.RenderURL)
	cfg.Upstream.Fixture = getEnv("ROOM_ANALYZER_FIXTURE", cfg.Upstream.Fixture)

	cfg.Upload.MaxBytes = int64(getEnvAsInt("ROOM_UPLOAD_MAX_BYTES", int(cfg.Upload.MaxBytes)))
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
