package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/valkey-io/valkey-go"
)

func testValkey(t *testing.T) *Valkey {
	t.Helper()
	addr := os.Getenv("TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("TEST_VALKEY_ADDR not set; skipping valkey integration test")
	}
	c, err := NewValkey(addr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestValkey_SetGet(t *testing.T) {
	c := testValkey(t)
	ctx := context.Background()
	key := "producermap:test:" + time.Now().Format(time.RFC3339Nano)

	if _, err := c.Get(ctx, key); !valkey.IsValkeyNil(err) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Set(ctx, key, []byte(`{"rows":[]}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"rows":[]}` {
		t.Fatalf("unexpected value %q", got)
	}
}
