package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Memory is an in-process Store for tests and throwaway environments.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
	prefix  string
}

func NewMemory(publicPrefix string) *Memory {
	return &Memory{objects: make(map[string]memObject), prefix: publicPrefix}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	obj := memObject{data: data, contentType: opts.ContentType, modified: time.Now().UTC()}

	m.mu.Lock()
	m.objects[key] = obj
	m.mu.Unlock()

	return m.info(key, obj), nil
}

func (m *Memory) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return Info{}, nil, ErrNotFound
	}
	return m.info(key, obj), io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) URL(key string) string { return joinURL(m.prefix, key) }

func (m *Memory) info(key string, obj memObject) Info {
	return Info{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
		URL:          m.URL(key),
	}
}
