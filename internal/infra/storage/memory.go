// internal/infra/storage/memory.go
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// StoredObject 是 MemoryProvider 中保存的一个对象
type StoredObject struct {
	Data        []byte
	ContentType string
	PublicRead  bool
}

// MemoryProvider 是进程内的 ObjectStorage 实现，用于试运行与测试
type MemoryProvider struct {
	mu      sync.RWMutex
	buckets map[string]map[string]StoredObject
}

// NewMemoryProvider 创建空的内存存储
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{buckets: make(map[string]map[string]StoredObject)}
}

func (p *MemoryProvider) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, ok := p.Object(bucket, key)
	if !ok {
		return nil, notFound(bucket, key)
	}
	return obj.Data, nil
}

func (p *MemoryProvider) Put(ctx context.Context, bucket, key string, data []byte, contentType string, opts ...PutOption) error {
	o := applyPutOptions(opts)
	p.mu.Lock()
	defer p.mu.Unlock()
	objects, ok := p.buckets[bucket]
	if !ok {
		objects = make(map[string]StoredObject)
		p.buckets[bucket] = objects
	}
	objects[key] = StoredObject{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
		PublicRead:  o.PublicRead,
	}
	return nil
}

func (p *MemoryProvider) Delete(ctx context.Context, bucket, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	objects := p.buckets[bucket]
	if _, ok := objects[key]; !ok {
		return notFound(bucket, key)
	}
	delete(objects, key)
	return nil
}

func (p *MemoryProvider) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var infos []ObjectInfo
	for key, obj := range p.buckets[bucket] {
		if strings.HasPrefix(key, prefix) && !strings.HasSuffix(key, "/") {
			infos = append(infos, ObjectInfo{Key: key, Size: int64(len(obj.Data))})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Object 返回对象及其上传参数的副本
func (p *MemoryProvider) Object(bucket, key string) (StoredObject, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	obj, ok := p.buckets[bucket][key]
	if !ok {
		return StoredObject{}, false
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, true
}

// Len 返回桶内对象数量
func (p *MemoryProvider) Len(bucket string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.buckets[bucket])
}
