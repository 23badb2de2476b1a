package persist

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"producermap/internal/domain"
)

type viewportState struct {
	Center domain.LatLng `json:"center"`
	Zoom   int           `json:"zoom"`
}

func TestKey(t *testing.T) {
	if got := Key("producermap", "abc", "cart"); got != "producermap:abc:cart" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRestoreFallsBackOnMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	fallback := viewportState{Zoom: 6}

	if got := Restore(ctx, store, "missing", fallback, nil); got != fallback {
		t.Fatalf("expected fallback for missing key, got %+v", got)
	}

	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	if err := store.Save(ctx, "bad", []byte("{not json")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := Restore(ctx, store, "bad", fallback, logger); got != fallback {
		t.Fatalf("expected fallback for corrupt payload, got %+v", got)
	}
	if !strings.Contains(buf.String(), "decode key=bad") {
		t.Fatalf("expected decode failure to be logged, got %q", buf.String())
	}
}

func TestRestoreNilStore(t *testing.T) {
	if got := Restore[int](context.Background(), nil, "k", 7, nil); got != 7 {
		t.Fatalf("expected fallback, got %d", got)
	}
	if err := Save(context.Background(), nil, "k", 1); err != nil {
		t.Fatalf("expected nil store save to be a no-op, got %v", err)
	}
	if err := Delete(context.Background(), nil, "k"); err != nil {
		t.Fatalf("expected nil store delete to be a no-op, got %v", err)
	}
}

func roundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	want := viewportState{Center: domain.LatLng{Lat: 45.76, Lng: 4.84}, Zoom: 11}
	if err := Save(ctx, store, "ns:s1:viewport", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := Restore(ctx, store, "ns:s1:viewport", viewportState{}, nil)
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if err := store.Delete(ctx, "ns:s1:viewport"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "ns:s1:viewport"); err != domain.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	store, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	roundTrip(t, store)
}

func TestRedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedis(client, time.Hour)
	roundTrip(t, store)

	if err := store.Save(context.Background(), "ttl", []byte("1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("ttl"); ttl != time.Hour {
		t.Fatalf("expected ttl of one hour, got %s", ttl)
	}
}
