/*
 * @Description: 身份令牌解析：外部身份令牌 -> 内部引用
 * @Author: 安知鱼
 * @Date: 2025-11-03 14:02:51
 * @LastEditTime: 2025-11-04 10:11:26
 * @LastEditors: 安知鱼
 */
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/repository"
)

// Service 将对象键中的身份令牌解析为作品表使用的内部引用
type Service interface {
	// Resolve 对身份表做一次点查询，未找到时返回 constant.ErrIdentityNotFound。
	Resolve(ctx context.Context, token string) (string, error)
}

type service struct {
	identityRepo repository.IdentityRepository
}

// NewService 创建身份解析服务实例。每次调用都直接查询，不做缓存。
func NewService(identityRepo repository.IdentityRepository) Service {
	return &service{identityRepo: identityRepo}
}

func (s *service) Resolve(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: 身份令牌为空", constant.ErrIdentityNotFound)
	}

	rec, found, err := s.identityRepo.FindByExternalID(ctx, token)
	if err != nil {
		return "", fmt.Errorf("查询身份记录 %s 失败: %w", token, err)
	}
	if !found || rec.InternalRef == "" {
		return "", fmt.Errorf("%w: sub=%s", constant.ErrIdentityNotFound, token)
	}
	return rec.InternalRef, nil
}
