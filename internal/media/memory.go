package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

const memoryBaseURL = "memory://media"

// MemoryStore keeps objects in process memory. It backs local runs without
// object storage configured.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores body under key
func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return &Object{Key: key, URL: memoryBaseURL + "/" + key}, nil
}

// Delete removes the object behind url
func (m *MemoryStore) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, memoryBaseURL+"/")
	if key == url {
		return ErrForeignObject
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("object %s not found", key)
	}
	delete(m.objects, key)
	return nil
}

// Has reports whether an object exists at url
func (m *MemoryStore) Has(url string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[strings.TrimPrefix(url, memoryBaseURL+"/")]
	return ok
}

// Len returns the number of stored objects
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
