/*
 * @Description: 内存文档存储（未配置 DynamoDB 时的降级方案，也用于本地调试）
 * @Author: 安知鱼
 * @Date: 2025-11-03 09:15:31
 * @LastEditTime: 2025-11-04 16:02:17
 * @LastEditors: 安知鱼
 */
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/repository"
)

// Store 同时实现 IdentityRepository 与 ArtworkRepository。
// 所有读写都在同一把锁内完成，等价于存储端的原子操作。
type Store struct {
	mu         sync.RWMutex
	identities map[string]model.IdentityRecord
	artworks   map[model.ArtworkRef]*model.ArtworkRecord
}

var (
	_ repository.IdentityRepository = (*Store)(nil)
	_ repository.ArtworkRepository  = (*Store)(nil)
)

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{
		identities: make(map[string]model.IdentityRecord),
		artworks:   make(map[model.ArtworkRef]*model.ArtworkRecord),
	}
}

// PutIdentity 写入一条身份记录
func (s *Store) PutIdentity(rec model.IdentityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[rec.ExternalID] = rec
}

// PutArtwork 写入（或覆盖）一条作品记录
func (s *Store) PutArtwork(rec model.ArtworkRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := rec
	cp.Images = append([]model.ImageEntry(nil), rec.Images...)
	s.artworks[rec.Ref()] = &cp
}

func (s *Store) FindByExternalID(ctx context.Context, externalID string) (*model.IdentityRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.identities[externalID]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (s *Store) Get(ctx context.Context, ref model.ArtworkRef) (*model.ArtworkRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.artworks[ref]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	cp.Images = append([]model.ImageEntry(nil), rec.Images...)
	return &cp, true, nil
}

func (s *Store) AppendImage(ctx context.Context, ref model.ArtworkRef, entry model.ImageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.artworks[ref]
	if !ok {
		return fmt.Errorf("%w: uref=%s uuid=%s", constant.ErrArtworkNotFound, ref.InternalRef, ref.ArtworkID)
	}
	rec.Images = append(rec.Images, entry)
	return nil
}

func (s *Store) RemoveImageAt(ctx context.Context, ref model.ArtworkRef, index int, expectedKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.artworks[ref]
	if !ok {
		return fmt.Errorf("%w: uref=%s uuid=%s", constant.ErrArtworkNotFound, ref.InternalRef, ref.ArtworkID)
	}
	if index < 0 || index >= len(rec.Images) || rec.Images[index].DerivedKey != expectedKey {
		return fmt.Errorf("%w: uref=%s uuid=%s index=%d", repository.ErrStaleSnapshot, ref.InternalRef, ref.ArtworkID, index)
	}
	rec.Images = append(rec.Images[:index], rec.Images[index+1:]...)
	return nil
}
