package mocks

import (
	"context"
	"io"
	"sync"
)

// MockObjectStore implements logic.ObjectStore in memory
type MockObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutFunc func(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{objects: make(map[string][]byte)}
}

// Put stores the body and returns a fake public URL
func (m *MockObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, contentType, body, size)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "https://test-bucket.example.com/" + key, nil
}

// Keys 已写入的对象键
func (m *MockObjectStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
