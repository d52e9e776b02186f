package blobstore

import (
	"context"
	"sync"
)

type MockS3Client struct {
	mu         sync.RWMutex
	objects    map[string][]byte
	lastBucket string
	calls      int
	putErr     error
}

func NewMockS3Client() *MockS3Client {
	return &MockS3Client{objects: make(map[string][]byte)}
}

func (m *MockS3Client) SetPutError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

func (m *MockS3Client) LastBucket() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastBucket
}

func (m *MockS3Client) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockS3Client) Object(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+key]
	return data, ok
}

func (m *MockS3Client) PutObject(_ context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.putErr != nil {
		return m.putErr
	}
	m.lastBucket = bucket
	m.objects[bucket+"/"+key] = data
	return nil
}
