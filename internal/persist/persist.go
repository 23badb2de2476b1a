// Package persist stores client state (filters, cart, viewport) between
// sessions under a stable namespace.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"producermap/internal/domain"
)

// Store is a byte-oriented key/value backend.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Key joins namespace and name parts with ':'.
func Key(namespace string, parts ...string) string {
	return strings.Join(append([]string{namespace}, parts...), ":")
}

// Restore decodes the value stored at key. Any failure (missing key, backend
// error, bad payload) yields fallback; non-missing failures are logged.
func Restore[T any](ctx context.Context, s Store, key string, fallback T, logger *log.Logger) T {
	if s == nil {
		return fallback
	}
	data, err := s.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && logger != nil {
			logger.Printf("persist: restore key=%s error=%v", key, err)
		}
		return fallback
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		if logger != nil {
			logger.Printf("persist: decode key=%s error=%v", key, err)
		}
		return fallback
	}
	return v
}

// Save encodes v as JSON and writes it at key.
func Save(ctx context.Context, s Store, key string, v any) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("persist: encode %s: %w", key, err)
	}
	return s.Save(ctx, key, data)
}

// Delete removes key. Missing keys are not an error.
func Delete(ctx context.Context, s Store, key string) error {
	if s == nil {
		return nil
	}
	return s.Delete(ctx, key)
}

// Memory keeps values in process.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
