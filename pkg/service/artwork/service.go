/*
 * @Description: 作品索引更新：images 列表的追加与按键删除
 * @Author: 安知鱼
 * @Date: 2025-11-03 15:30:12
 * @LastEditTime: 2025-11-05 14:48:03
 * @LastEditors: 安知鱼
 */
package artwork

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/utility"
)

// maxRemoveAttempts 是条件删除因快照过期而重新读取的次数上限
const maxRemoveAttempts = 3

// Service 定义了作品索引的写操作
type Service interface {
	// Append 以存储端的原子追加写入一条条目，并发追加不会互相覆盖
	Append(ctx context.Context, ref model.ArtworkRef, entry model.ImageEntry) error

	// Remove 删除 key（优先）或 rawKey（兼容旧数据）匹配的条目，返回被删除的条目。
	// 没有匹配条目时返回 constant.ErrEntryNotFound，列表保持不变。
	Remove(ctx context.Context, ref model.ArtworkRef, key, rawKey string) (*model.ImageEntry, error)
}

type service struct {
	artworkRepo repository.ArtworkRepository
	locker      utility.KeyLocker
}

// NewService 创建作品索引服务。locker 为 nil 时使用进程内锁。
func NewService(artworkRepo repository.ArtworkRepository, locker utility.KeyLocker) Service {
	if locker == nil {
		locker = utility.NewPathLocker()
	}
	return &service{
		artworkRepo: artworkRepo,
		locker:      locker,
	}
}

func (s *service) Append(ctx context.Context, ref model.ArtworkRef, entry model.ImageEntry) error {
	if entry.DerivedKey == "" {
		return fmt.Errorf("%w: 图片条目缺少 key", constant.ErrMalformedKey)
	}
	if err := s.artworkRepo.AppendImage(ctx, ref, entry); err != nil {
		return fmt.Errorf("追加图片条目 %s 到作品 %s 失败: %w", entry.DerivedKey, ref.ArtworkID, err)
	}
	log.Printf("[ArtworkIndex] 已追加条目: uref=%s, uuid=%s, key=%s", ref.InternalRef, ref.ArtworkID, entry.DerivedKey)
	return nil
}

func (s *service) Remove(ctx context.Context, ref model.ArtworkRef, key, rawKey string) (*model.ImageEntry, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(ref))
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; attempt <= maxRemoveAttempts; attempt++ {
		rec, found, err := s.artworkRepo.Get(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("读取作品 %s 失败: %w", ref.ArtworkID, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: uref=%s uuid=%s", constant.ErrArtworkNotFound, ref.InternalRef, ref.ArtworkID)
		}

		index := FindEntry(rec.Images, key, rawKey)
		if index < 0 {
			return nil, fmt.Errorf("%w: uref=%s uuid=%s key=%s raw-key=%s",
				constant.ErrEntryNotFound, ref.InternalRef, ref.ArtworkID, key, rawKey)
		}
		entry := rec.Images[index]

		err = s.artworkRepo.RemoveImageAt(ctx, ref, index, entry.DerivedKey)
		if err == nil {
			log.Printf("[ArtworkIndex] 已删除条目: uref=%s, uuid=%s, key=%s, index=%d", ref.InternalRef, ref.ArtworkID, entry.DerivedKey, index)
			return &entry, nil
		}
		if !errors.Is(err, repository.ErrStaleSnapshot) {
			return nil, fmt.Errorf("删除作品 %s 的第 %d 个条目失败: %w", ref.ArtworkID, index, err)
		}
		log.Printf("[ArtworkIndex] 快照已过期，重新读取 (第 %d/%d 次): uuid=%s", attempt, maxRemoveAttempts, ref.ArtworkID)
	}

	return nil, fmt.Errorf("%w: uref=%s uuid=%s key=%s", constant.ErrIndexConflict, ref.InternalRef, ref.ArtworkID, key)
}

// FindEntry 在快照中查找条目的位置：先按衍生键匹配，再按原始键匹配，都没有时返回 -1
func FindEntry(images []model.ImageEntry, key, rawKey string) int {
	for _, candidate := range []string{key, rawKey} {
		for i, img := range images {
			if img.MatchesKey(candidate) {
				return i
			}
		}
	}
	return -1
}

func lockKey(ref model.ArtworkRef) string {
	return ref.InternalRef + "/" + ref.ArtworkID
}
