package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "govportal/pkg/platform/strings"
)

// Storage drivers.
const (
	StorageREST       = "rest"
	StorageFilesystem = "filesystem"
	StorageMemory     = "memory"
)

// Record drivers.
const (
	RecordsPostgres = "postgres"
	RecordsMemory   = "memory"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	Database DatabaseConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Intake   IntakeConfig
}

// DatabaseConfig selects and configures the system of record.
type DatabaseConfig struct {
	Driver      string
	URL         string
	MaxConns    int32
	AutoMigrate bool
}

// StorageConfig selects and configures attachment storage.
type StorageConfig struct {
	Driver     string
	URL        string
	ServiceKey string
	// PublicURL is the base used to build retrievable attachment URLs.
	// Defaults to URL for the REST driver.
	PublicURL string
	Dir       string
}

// RedisConfig configures the optional Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional submission event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// IntakeConfig tunes the submission pipeline.
type IntakeConfig struct {
	UploadTimeout     time.Duration
	UploadConcurrency int
	MaxUploadBytes    int64
	RateLimit         int
	RateWindow        time.Duration
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	storageURL := strings.TrimRight(os.Getenv("STORAGE_URL"), "/")
	publicURL := strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", storageURL), "/")

	return Server{
		Addr:           getEnv("PORTAL_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("RECORD_DRIVER", RecordsPostgres)),
			URL:         os.Getenv("DATABASE_URL"),
			MaxConns:    int32(getEnvInt("DATABASE_MAX_CONNS", 10)),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageREST)),
			URL:        storageURL,
			ServiceKey: os.Getenv("STORAGE_SERVICE_KEY"),
			PublicURL:  publicURL,
			Dir:        getEnv("STORAGE_DIR", "uploads"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "portal.submissions"),
		},
		Intake: IntakeConfig{
			UploadTimeout:     getEnvDuration("UPLOAD_TIMEOUT", 30*time.Second),
			UploadConcurrency: getEnvInt("UPLOAD_CONCURRENCY", 1),
			MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 12<<20)),
			RateLimit:         getEnvInt("SUBMISSION_RATE_LIMIT", 20),
			RateWindow:        getEnvDuration("SUBMISSION_RATE_WINDOW", 10*time.Minute),
		},
	}
}

// Missing lists the required keys absent for the selected drivers. The
// process still starts when keys are missing; intake requests then fail with
// a configuration error instead of a storage or database error.
func (s Server) Missing() []string {
	var missing []string
	switch s.Database.Driver {
	case RecordsMemory:
	case RecordsPostgres:
		if s.Database.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		missing = append(missing, "RECORD_DRIVER")
	}

	switch s.Storage.Driver {
	case StorageMemory:
	case StorageFilesystem:
		if s.Storage.Dir == "" {
			missing = append(missing, "STORAGE_DIR")
		}
	case StorageREST:
		if s.Storage.URL == "" {
			missing = append(missing, "STORAGE_URL")
		}
		if s.Storage.ServiceKey == "" {
			missing = append(missing, "STORAGE_SERVICE_KEY")
		}
	default:
		missing = append(missing, "STORAGE_DRIVER")
	}
	return missing
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	out := pstrings.SplitList(v)
	if len(out) == 0 {
		return fallback
	}
	return out
}
