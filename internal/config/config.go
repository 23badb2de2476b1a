package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Persistence backends for client state.
const (
	PersistFile  = "file"
	PersistRedis = "redis"
	PersistNone  = "none"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	DBConnString    string
	DBMaxConns      int
	ShutdownTimeout time.Duration

	PageSize       int
	Debounce       time.Duration
	StateNamespace string

	PersistBackend string
	PersistDir     string
	RedisAddr      string
	StateTTL       time.Duration

	ValkeyAddr    string
	QueryCacheTTL time.Duration

	NATSURL             string
	NotifySubjectPrefix string

	CORSOrigins  []string
	RateLimit    float64
	RateBurst    int
	SessionLimit int
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// a missing .env is normal outside local development
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DBConnString:    envOrDefault("DB_DSN", ""),
		DBMaxConns:      envInt("DB_MAX_CONNS", 0),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),

		PageSize:       envInt("PAGE_SIZE", 20),
		Debounce:       envMillis("DEBOUNCE_MS", 200*time.Millisecond),
		StateNamespace: envOrDefault("STATE_NAMESPACE", "producermap"),

		PersistBackend: strings.ToLower(envOrDefault("PERSIST_BACKEND", PersistFile)),
		PersistDir:     envOrDefault("PERSIST_DIR", "./data/state"),
		RedisAddr:      envOrDefault("REDIS_ADDR", "localhost:6379"),
		StateTTL:       envDuration("STATE_TTL_SECONDS", 30*24*time.Hour),

		ValkeyAddr:    envOrDefault("VALKEY_ADDR", ""),
		QueryCacheTTL: envDuration("QUERY_CACHE_TTL_SECONDS", 30*time.Second),

		NATSURL:             envOrDefault("NATS_URL", ""),
		NotifySubjectPrefix: envOrDefault("NOTIFY_SUBJECT_PREFIX", "producermap.notify"),

		CORSOrigins:  envList("CORS_ORIGINS", []string{"*"}),
		RateLimit:    envFloat("RATE_LIMIT_PER_SECOND", 20),
		RateBurst:    envInt("RATE_LIMIT_BURST", 40),
		SessionLimit: envInt("SESSION_LIMIT", 10000),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		ms, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
