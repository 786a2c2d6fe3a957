/*
 * @Description: 文档存储边界：身份表与作品表
 * @Author: 安知鱼
 * @Date: 2025-11-02 11:20:14
 * @LastEditTime: 2025-11-04 10:05:37
 * @LastEditors: 安知鱼
 */
package repository

import (
	"context"
	"errors"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
)

// ErrStaleSnapshot 表示条件写入时发现快照已被并发修改
var ErrStaleSnapshot = errors.New("作品快照已过期")

// IdentityRepository 定义了身份表的只读接口。
// 未找到时返回 (nil, false, nil)，与“找到但为空”区分开。
type IdentityRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*model.IdentityRecord, bool, error)
}

// ArtworkRepository 定义了作品表 images 列表的读写接口
type ArtworkRepository interface {
	// Get 读取作品记录的当前快照，未找到时返回 (nil, false, nil)
	Get(ctx context.Context, ref model.ArtworkRef) (*model.ArtworkRecord, bool, error)

	// AppendImage 以存储端的原子追加合并写入一条图片条目，
	// 作品不存在时返回 constant.ErrArtworkNotFound
	AppendImage(ctx context.Context, ref model.ArtworkRef, entry model.ImageEntry) error

	// RemoveImageAt 删除 index 位置的条目，前提是该位置条目的 key 仍等于 expectedKey。
	// 条件不满足时返回 ErrStaleSnapshot，调用方应重新读取快照。
	RemoveImageAt(ctx context.Context, ref model.ArtworkRef, index int, expectedKey string) error
}
