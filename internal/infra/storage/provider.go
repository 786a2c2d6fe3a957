/*
 * @Description: 定义了对象存储网关需要遵守的接口和公共结构
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2025-11-03 17:44:08
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"fmt"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

// ObjectInfo 封装了 List 操作返回的单个对象的信息
type ObjectInfo struct {
	Key  string
	Size int64
}

// PutOptions 是 Put 的可选参数
type PutOptions struct {
	PublicRead bool
}

// PutOption 修改 PutOptions
type PutOption func(*PutOptions)

// WithPublicRead 使上传的对象可被公开读取（S3 的 public-read ACL）
func WithPublicRead() PutOption {
	return func(o *PutOptions) {
		o.PublicRead = true
	}
}

func applyPutOptions(opts []PutOption) PutOptions {
	var o PutOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ObjectStorage 定义了流水线对对象存储的全部依赖。
// 所有实现都必须在对象不存在时返回包装了 constant.ErrObjectNotFound 的错误。
type ObjectStorage interface {
	// Get 读取整个对象
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put 写入整个对象
	Put(ctx context.Context, bucket, key string, data []byte, contentType string, opts ...PutOption) error
	// Delete 删除对象，对象不存在时返回 ErrObjectNotFound
	Delete(ctx context.Context, bucket, key string) error
	// List 按键的字典序返回前缀下的所有对象
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

func notFound(bucket, key string) error {
	return fmt.Errorf("%w: %s/%s", constant.ErrObjectNotFound, bucket, key)
}
