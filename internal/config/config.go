package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/phambaophuc/otsu-watermark/internal/services/assets"
)

type Config struct {
	Server   ServerConfig
	Assets   AssetsConfig
	Video    VideoConfig
	Storage  StorageConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Supabase SupabaseConfig
	LogLevel string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AssetsConfig struct {
	FontDir  string
	FontFile string
}

type VideoConfig struct {
	FFmpegPath  string
	FFprobePath string
	TempDir     string
}

type StorageConfig struct {
	MaxUploadBytes int64
	UploadRate     float64
	UploadBurst    int
	UploadDir      string
	OutputDir      string
	CacheDuration  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL     string
	Workers int
}

type SupabaseConfig struct {
	URL    string
	KEY    string
	BUCKET string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5001"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Minute),
		},
		Assets: AssetsConfig{
			// Empty lets the font loader locate assets/fonts itself.
			FontDir:  getEnv("FONT_DIR", ""),
			FontFile: getEnv("FONT_FILE", assets.DefaultFontFile),
		},
		Video: VideoConfig{
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
			TempDir:     getEnv("TEMP_DIR", os.TempDir()),
		},
		Storage: StorageConfig{
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 500*1024*1024), // 500MB
			UploadRate:     getEnvAsFloat("UPLOAD_RATE", 2),
			UploadBurst:    getEnvAsInt("UPLOAD_BURST", 10),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			OutputDir:      getEnv("OUTPUT_DIR", "./output"),
			CacheDuration:  getDuration("CACHE_DURATION", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:     getEnv("RABBITMQ_URL", ""),
			Workers: getEnvAsInt("QUEUE_WORKERS", 2),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			KEY:    getEnv("SUPABASE_KEY", ""),
			BUCKET: getEnv("SUPABASE_BUCKET", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
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

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
