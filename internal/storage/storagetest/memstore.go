// Package storagetest 提供内存版对象存储，供流水线测试断言对象残留情况。
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"clubvid/internal/storage"
)

// MemStore 线程安全的内存对象存储。
// PutErr / DeleteErr / SignErr 可按 key 注入失败。
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	PutErr    func(key string) error
	DeleteErr func(key string) error
	SignErr   func(key string) error

	deletes []string
}

var _ storage.ObjectStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *MemStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.PutErr != nil {
		if err := m.PutErr(key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: declared %d, read %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *MemStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemStore) Delete(ctx context.Context, key string) error {
	if m.DeleteErr != nil {
		if err := m.DeleteErr(key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	m.deletes = append(m.deletes, key)
	return nil
}

func (m *MemStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.SignErr != nil {
		if err := m.SignErr(key); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", storage.ErrNotFound
	}
	return fmt.Sprintf("mem://%s?ttl=%d", key, int(ttl.Seconds())), nil
}

// Keys 返回当前所有对象键（已排序）
func (m *MemStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has 判断对象是否存在
func (m *MemStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// ContentType 返回对象写入时的 Content-Type
func (m *MemStore) ContentType(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[key]
}

// Deleted 返回 Delete 被调用过的键（按调用顺序）
func (m *MemStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletes...)
}

// FailKeys 返回一个对指定前缀的键注入 err 的函数
func FailKeys(prefix string, err error) func(string) error {
	return func(key string) error {
		if strings.HasPrefix(key, prefix) {
			return err
		}
		return nil
	}
}

// ErrInjected 测试注入的通用错误
var ErrInjected = errors.New("injected failure")
