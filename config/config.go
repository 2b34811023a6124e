package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the server configuration read from the environment.
type Config struct {
	Env      string // development, production
	LogLevel string
	Port     string
	GinMode  string

	// StoreDriver selects the persistence backend: "mongo" or "memory".
	StoreDriver string
	MongoURI    string
	MongoDB     string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	IssueLimitKey   string
	IssueDailyLimit int

	UploadDir      string
	MaxUploadBytes int64

	// GCS is used for images when GCSBucket is set, local disk otherwise.
	GCSBucket              string
	GCSCredentialsJSONPath string

	RabbitMQURL         string
	RabbitMQEventsQueue string

	CORSAllowedOrigins string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			logrus.Warnf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logrus.Warnf("invalid duration for %s: %v, using default %v", key, err, def)
			return def
		}
		return d
	}
	return def
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Env:      getenv("APP_ENV", "development"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		Port:     getenv("PORT", "8080"),
		GinMode:  getenv("GIN_MODE", "release"),

		StoreDriver: getenv("STORE_DRIVER", "mongo"),
		MongoURI:    os.Getenv("MONGODB_URI"),
		MongoDB:     getenv("MONGODB_DB", "civictrack"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getdur("JWT_TTL", 30*24*time.Hour),

		RedisAddr:       os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getint("REDIS_DB", 0),
		IssueLimitKey:   getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit"),
		IssueDailyLimit: getint("ISSUE_DAILY_LIMIT", 10),

		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getint("MAX_UPLOAD_BYTES", 5*1024*1024)),

		GCSBucket:              os.Getenv("GCS_BUCKET"),
		GCSCredentialsJSONPath: os.Getenv("GCS_CREDENTIALS_JSON"),

		RabbitMQURL:         os.Getenv("RABBITMQ_URL"),
		RabbitMQEventsQueue: getenv("RABBITMQ_EVENTS_QUEUE", "issue_events"),

		CORSAllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://civictrack-frontend.vercel.app"),
	}
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CORSOrigins returns the allowed origins as a slice.
func (c *Config) CORSOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
