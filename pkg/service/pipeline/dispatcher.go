/*
 * @Description: 存储事件分发：识别事件类型，解析对象键，执行创建或删除流水线
 * @Author: 安知鱼
 * @Date: 2025-11-04 13:10:22
 * @LastEditTime: 2025-11-06 10:21:45
 * @LastEditors: 安知鱼
 */
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/artwork"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/identity"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/objectkey"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/thumbnail"
)

// Generator 从源图生成各尺寸的衍生图
type Generator interface {
	Generate(ctx context.Context, source []byte, sizeBytes int64, targets []thumbnail.SizeTarget) (*thumbnail.Result, error)
}

// Dispatcher 是每个存储事件的入口。它本身无状态，每次调用互不影响。
type Dispatcher struct {
	storage     storage.ObjectStorage
	generator   Generator
	identitySvc identity.Service
	artworkSvc  artwork.Service
	targets     []thumbnail.SizeTarget
	timeout     time.Duration
}

// NewDispatcher 创建分发器。targets 决定衍生图的尺寸、目标桶与处理顺序；
// timeout 为单次调用的时间预算，<=0 表示不额外限制。
func NewDispatcher(
	objectStorage storage.ObjectStorage,
	generator Generator,
	identitySvc identity.Service,
	artworkSvc artwork.Service,
	targets []thumbnail.SizeTarget,
	timeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		storage:     objectStorage,
		generator:   generator,
		identitySvc: identitySvc,
		artworkSvc:  artworkSvc,
		targets:     targets,
		timeout:     timeout,
	}
}

// DispatchAll 依次处理一批事件，第一个失败即中止并返回已完成的结果
func (d *Dispatcher) DispatchAll(ctx context.Context, events []model.StorageEvent) ([]*model.InvocationResult, error) {
	results := make([]*model.InvocationResult, 0, len(events))
	for _, event := range events {
		res, err := d.Dispatch(ctx, event)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Dispatch 处理单个存储事件
func (d *Dispatcher) Dispatch(ctx context.Context, event model.StorageEvent) (*model.InvocationResult, error) {
	eventType, ok := constant.ParseEventType(event.EventType)
	if !ok {
		return nil, fmt.Errorf("%w: 未知的事件类型 '%s'", constant.ErrInvalidEvent, event.EventType)
	}

	for _, target := range d.targets {
		if target.Bucket == event.Bucket {
			return nil, fmt.Errorf("%w: 源存储桶 %s 与 %s 衍生图的目标桶相同", constant.ErrInvalidEvent, event.Bucket, target.Name)
		}
	}

	key, err := objectkey.DecodeAndParse(event.Key)
	if err != nil {
		log.Printf("[Pipeline] 对象键无法解析: bucket=%s, key=%s, err=%v", event.Bucket, event.Key, err)
		return nil, err
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	inv := &invocation{
		event:      event,
		key:        key,
		derivedKey: objectkey.DerivedKey(key),
	}

	var stages []Stage
	switch eventType {
	case constant.EventCreated:
		stages = d.creationStages(inv)
	case constant.EventRemoved:
		stages = d.removalStages(inv)
	}

	start := time.Now()
	if err := RunStages(ctx, stages); err != nil {
		log.Printf("[Pipeline] %s 事件处理失败 (kind=%s): token=%s, artwork=%s, key=%s, err=%v",
			eventType, constant.Classify(err), key.IdentityToken, key.ArtworkID, key.Raw, err)
		return nil, err
	}

	log.Printf("[Pipeline] %s 事件处理完成: key=%s, derived=%s, 耗时 %s", eventType, key.Raw, inv.derivedKey, time.Since(start))
	return &model.InvocationResult{
		StatusCode: http.StatusOK,
		EventType:  string(eventType),
		Key:        key.Raw,
		DerivedKey: inv.derivedKey,
	}, nil
}

// invocation 保存单次调用在各阶段之间传递的中间结果
type invocation struct {
	event       model.StorageEvent
	key         *model.ObjectKey
	derivedKey  string
	source      []byte
	result      *thumbnail.Result
	internalRef string
}

func (inv *invocation) ref() model.ArtworkRef {
	return model.ArtworkRef{InternalRef: inv.internalRef, ArtworkID: inv.key.ArtworkID}
}

// creationStages: 下载 -> 生成 -> 逐个上传 -> 解析身份 -> 追加索引
func (d *Dispatcher) creationStages(inv *invocation) []Stage {
	return []Stage{
		{Name: "download", Run: func(ctx context.Context) error {
			data, err := d.storage.Get(ctx, inv.event.Bucket, inv.key.Raw)
			if err != nil {
				return err
			}
			inv.source = data
			return nil
		}},
		{Name: "generate", Run: func(ctx context.Context) error {
			res, err := d.generator.Generate(ctx, inv.source, inv.event.Size, d.targets)
			if err != nil {
				return err
			}
			inv.result = res
			return nil
		}},
		{Name: "upload", Run: func(ctx context.Context) error {
			for _, der := range inv.result.Derivatives {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := d.storage.Put(ctx, der.Target.Bucket, inv.derivedKey, der.Data, der.ContentType); err != nil {
					return fmt.Errorf("上传 %s 衍生图到 %s 失败: %w", der.Target.Name, der.Target.Bucket, err)
				}
				log.Printf("[Pipeline] 已上传 %s 衍生图 %dx%d: %s/%s", der.Target.Name, der.Width, der.Height, der.Target.Bucket, inv.derivedKey)
			}
			return nil
		}},
		d.resolveStage(inv),
		{Name: "index-append", Run: func(ctx context.Context) error {
			return d.artworkSvc.Append(ctx, inv.ref(), model.ImageEntry{
				DerivedKey: inv.derivedKey,
				RawKey:     inv.key.Raw,
				ImageID:    inv.key.ImageID,
				Filename:   inv.key.Filename,
				Metadata:   inv.result.Metadata,
			})
		}},
	}
}

// removalStages: 删除各尺寸衍生图 -> 解析身份 -> 删除索引条目
func (d *Dispatcher) removalStages(inv *invocation) []Stage {
	return []Stage{
		{Name: "delete-derivatives", Run: func(ctx context.Context) error {
			for _, target := range d.targets {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := d.deleteDerivative(ctx, target.Bucket, inv.derivedKey, inv.key.Raw); err != nil {
					return err
				}
			}
			return nil
		}},
		d.resolveStage(inv),
		{Name: "index-remove", Run: func(ctx context.Context) error {
			_, err := d.artworkSvc.Remove(ctx, inv.ref(), inv.derivedKey, inv.key.Raw)
			return err
		}},
	}
}

func (d *Dispatcher) resolveStage(inv *invocation) Stage {
	return Stage{Name: "resolve-identity", Run: func(ctx context.Context) error {
		uref, err := d.identitySvc.Resolve(ctx, inv.key.IdentityToken)
		if err != nil {
			return err
		}
		inv.internalRef = uref
		return nil
	}}
}

// deleteDerivative 删除衍生图；旧数据的衍生图沿用原始文件名，找不到时在同一个桶里按原始键再删一次。
// 两种键都不存在视为已删除，继续清理索引。
func (d *Dispatcher) deleteDerivative(ctx context.Context, bucket, derivedKey, rawKey string) error {
	err := d.storage.Delete(ctx, bucket, derivedKey)
	if err == nil {
		log.Printf("[Pipeline] 已删除衍生图: %s/%s", bucket, derivedKey)
		return nil
	}
	if !errors.Is(err, constant.ErrObjectNotFound) {
		return fmt.Errorf("删除衍生图 %s/%s 失败: %w", bucket, derivedKey, err)
	}

	if rawKey == derivedKey {
		log.Printf("[Pipeline] 衍生图不存在，跳过: %s/%s", bucket, derivedKey)
		return nil
	}
	err = d.storage.Delete(ctx, bucket, rawKey)
	switch {
	case err == nil:
		log.Printf("[Pipeline] 已按旧命名删除衍生图: %s/%s", bucket, rawKey)
		return nil
	case errors.Is(err, constant.ErrObjectNotFound):
		log.Printf("[Pipeline] 衍生图在 %s 中不存在 (key=%s, raw-key=%s)，跳过", bucket, derivedKey, rawKey)
		return nil
	default:
		return fmt.Errorf("按旧命名删除衍生图 %s/%s 失败: %w", bucket, rawKey, err)
	}
}
