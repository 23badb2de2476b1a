package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PAGE_SIZE", "DEBOUNCE_MS", "PERSIST_BACKEND", "CORS_ORIGINS", "DB_DSN"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.PageSize != 20 || cfg.Debounce != 200*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.PersistBackend != PersistFile || cfg.DBConnString != "" {
		t.Fatalf("unexpected persistence defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors default %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("DEBOUNCE_MS", "350")
	t.Setenv("PERSIST_BACKEND", "Redis")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("QUERY_CACHE_TTL_SECONDS", "bogus")

	cfg := FromEnv()
	if cfg.PageSize != 50 || cfg.Debounce != 350*time.Millisecond {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.PersistBackend != PersistRedis {
		t.Fatalf("expected backend lowercased, got %q", cfg.PersistBackend)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.RateLimit != 2.5 || cfg.QueryCacheTTL != 30*time.Second {
		t.Fatalf("unexpected rate/ttl %v %v", cfg.RateLimit, cfg.QueryCacheTTL)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STATE_NAMESPACE=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("STATE_NAMESPACE", "")
	os.Unsetenv("STATE_NAMESPACE")

	cfg := Load(path)
	if cfg.StateNamespace != "from-dotenv" {
		t.Fatalf("expected value from .env, got %q", cfg.StateNamespace)
	}
	os.Unsetenv("STATE_NAMESPACE")
}
