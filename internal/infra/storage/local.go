// internal/infra/storage/local.go
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalProvider 实现了 ObjectStorage 接口，把每个存储桶映射为根目录下的一个子目录，
// 用于本地开发与离线调试。
type LocalProvider struct {
	root string
}

// NewLocalProvider 是 LocalProvider 的构造函数
func NewLocalProvider(root string) *LocalProvider {
	return &LocalProvider{root: root}
}

// objectPath 将 (bucket, key) 映射为物理路径，拒绝越出桶目录的键
func (p *LocalProvider) objectPath(bucket, key string) (string, error) {
	bucketDir := filepath.Join(p.root, bucket)
	full := filepath.Join(bucketDir, filepath.FromSlash(key))
	if full != bucketDir && !strings.HasPrefix(full, bucketDir+string(filepath.Separator)) {
		return "", fmt.Errorf("非法的对象键: %s", key)
	}
	return full, nil
}

// Get 实现了从本机磁盘读取对象的逻辑
func (p *LocalProvider) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	physicalPath, err := p.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(physicalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(bucket, key)
		}
		return nil, fmt.Errorf("无法读取物理文件 '%s': %w", physicalPath, err)
	}
	return data, nil
}

// Put 写入对象，先写临时文件再重命名，避免读到半个文件
func (p *LocalProvider) Put(ctx context.Context, bucket, key string, data []byte, contentType string, opts ...PutOption) error {
	physicalPath, err := p.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(physicalPath), 0755); err != nil {
		return fmt.Errorf("无法创建目录 '%s': %w", filepath.Dir(physicalPath), err)
	}

	tmpPath := physicalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, physicalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("重命名临时文件失败: %w", err)
	}

	log.Printf("[LocalProvider] 写入 %s/%s (%s, %d 字节)", bucket, key, contentType, len(data))
	return nil
}

// Delete 删除对象，不存在时返回 ErrObjectNotFound
func (p *LocalProvider) Delete(ctx context.Context, bucket, key string) error {
	physicalPath, err := p.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			return notFound(bucket, key)
		}
		return fmt.Errorf("删除物理文件 '%s' 失败: %w", physicalPath, err)
	}
	return nil
}

// List 递归列出前缀下的对象，按键排序以对齐 S3 的字典序
func (p *LocalProvider) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	bucketDir := filepath.Join(p.root, bucket)

	var objects []ObjectInfo
	err := filepath.WalkDir(bucketDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(bucketDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{Key: key, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("无法列出本地目录 '%s': %w", bucketDir, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}
