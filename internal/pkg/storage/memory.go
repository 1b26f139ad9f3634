package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
)

// Memory keeps objects in process memory. It backs local runs where no
// bucket is available; URL points at PublicURL which nothing serves.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	base    string
}

func NewMemory(publicURL string) *Memory {
	if publicURL == "" {
		publicURL = "http://localhost/storage"
	}
	return &Memory{objects: map[string][]byte{}, base: publicURL}
}

func (m *Memory) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error) {
	if key == "" {
		return Object{}, ErrKeyRequired
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return Object{}, err
	}

	sum := md5.Sum(buf.Bytes())
	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return Object{
		Key:         key,
		Size:        int64(buf.Len()),
		ETag:        hex.EncodeToString(sum[:]),
		ContentType: opts.ContentType,
		URL:         m.URL(key),
	}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns the stored bytes of key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return b, ok
}

func (m *Memory) URL(key string) string { return joinURL(m.base, key) }

func (m *Memory) Close() error { return nil }
