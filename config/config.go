package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	Port      string
	WebAppDir string // Path to the web application's UI files (SPA shell)

	JWTSecret string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis is optional; when disabled the market caches live in process memory.
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Insight generation via the HuggingFace router (OpenAI-compatible).
	HFToken   string
	HFBaseURL string
	HFModel   string // optional override for the first model in the fallback chain

	CryptoPanicKey string

	PricesTTL time.Duration
	NewsTTL   time.Duration

	// Upstream HTTP timeout for prices/news/insight calls.
	UpstreamTimeout time.Duration

	MemesFile string // curated meme list, hot reloaded when it changes

	// MinIO is optional; when enabled, /media/* serves objects from the bucket.
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as duration or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port:      getEnv("PORT", "3001"),
		WebAppDir: getEnv("WEB_APP_DIR", filepath.Join("web", "build")),

		JWTSecret: os.Getenv("JWT_SECRET"), // no default on purpose, login fails loudly without it

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "coinpulse"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		HFToken:   os.Getenv("HF_TOKEN"),
		HFBaseURL: getEnv("HF_BASE_URL", "https://router.huggingface.co/v1"),
		HFModel:   strings.TrimSpace(os.Getenv("HF_MODEL")),

		CryptoPanicKey: os.Getenv("CRYPTOPANIC_KEY"),

		PricesTTL: getEnvDuration("PRICES_TTL", 2*time.Minute),
		NewsTTL:   getEnvDuration("NEWS_TTL", 5*time.Minute),

		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		MemesFile: getEnv("MEMES_FILE", filepath.Join("data", "memes.json")),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "coinpulse"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
	}
}
