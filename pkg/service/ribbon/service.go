/*
 * @Description: 条带图合成：把展览目录下的所有缩略图拼成一张网格预览图
 * @Author: 安知鱼
 * @Date: 2025-11-04 10:02:15
 * @LastEditTime: 2025-11-05 16:37:50
 * @LastEditors: 安知鱼
 */
package ribbon

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

const (
	DefaultTileSize    = 40
	DefaultTilesPerRow = 9
	DefaultConcurrency = 8
	DefaultQuality     = 80
)

// Background 是画布底色，半透明白色
var Background = color.NRGBA{R: 255, G: 255, B: 255, A: 128}

// Options 配置条带图的来源桶与网格参数，零值字段使用默认值
type Options struct {
	Bucket      string
	TileSize    int
	TilesPerRow int
	Concurrency int
	Quality     int
}

func (o Options) withDefaults() Options {
	if o.TileSize <= 0 {
		o.TileSize = DefaultTileSize
	}
	if o.TilesPerRow <= 0 {
		o.TilesPerRow = DefaultTilesPerRow
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Result 描述一次成功发布的条带图
type Result struct {
	Key    string
	Tiles  int
	Width  int
	Height int
}

// Service 定义了条带图的构建接口
type Service interface {
	// Build 为 prefix 构建并发布条带图。前缀下没有缩略图时什么也不做，返回 (nil, nil)。
	Build(ctx context.Context, prefix string) (*Result, error)
}

// FoldStep 是合成的一步：接收上一步的画布，返回叠加了第 i 个图块的新画布
type FoldStep func(acc *image.NRGBA, i int, tile []byte) (*image.NRGBA, error)

// Fold 严格按列表顺序依次执行 step，任何一步失败都返回错误且不产生结果
func Fold(acc *image.NRGBA, tiles [][]byte, step FoldStep) (*image.NRGBA, error) {
	for i, tile := range tiles {
		next, err := step(acc, i, tile)
		if err != nil {
			return nil, fmt.Errorf("合成第 %d 个图块失败: %w", i, err)
		}
		acc = next
	}
	return acc, nil
}

type service struct {
	storage storage.ObjectStorage
	opts    Options
}

// NewService 创建条带图服务
func NewService(objectStorage storage.ObjectStorage, opts Options) Service {
	return &service{
		storage: objectStorage,
		opts:    opts.withDefaults(),
	}
}

// NormalizePrefix 确保前缀以 "/" 结尾
func NormalizePrefix(prefix string) string {
	if strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

func (s *service) Build(ctx context.Context, prefix string) (*Result, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, fmt.Errorf("%w: 条带图前缀为空", constant.ErrInvalidEvent)
	}
	prefix = NormalizePrefix(prefix)
	thumbsPath := prefix + constant.RibbonThumbsDir

	objects, err := s.storage.List(ctx, s.opts.Bucket, thumbsPath)
	if err != nil {
		return nil, fmt.Errorf("列出 %s 下的缩略图失败: %w", thumbsPath, err)
	}
	log.Printf("[Ribbon] 前缀 %s 下共有 %d 张缩略图", prefix, len(objects))
	if len(objects) == 0 {
		return nil, nil
	}

	tiles, err := s.fetchTiles(ctx, objects)
	if err != nil {
		return nil, err
	}

	width, height := CanvasSize(len(tiles), s.opts.TileSize, s.opts.TilesPerRow)
	canvas, err := Fold(imaging.New(width, height, Background), tiles, s.overlayStep(ctx))
	if err != nil {
		log.Printf("[Ribbon] 前缀 %s 的条带图合成失败，不会发布: %v", prefix, err)
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dropAlpha(canvas), imaging.JPEG, imaging.JPEGQuality(s.opts.Quality)); err != nil {
		return nil, fmt.Errorf("编码条带图失败: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := prefix + constant.RibbonObjectName
	if err := s.storage.Put(ctx, s.opts.Bucket, key, buf.Bytes(), constant.DerivedContentType, storage.WithPublicRead()); err != nil {
		return nil, fmt.Errorf("上传条带图 %s 失败: %w", key, err)
	}

	log.Printf("[Ribbon] 已发布条带图 %s (%dx%d, %d 个图块)", key, width, height, len(tiles))
	return &Result{Key: key, Tiles: len(tiles), Width: width, Height: height}, nil
}

// fetchTiles 并发下载所有图块，结果保持列表顺序
func (s *service) fetchTiles(ctx context.Context, objects []storage.ObjectInfo) ([][]byte, error) {
	tiles := make([][]byte, len(objects))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.opts.Concurrency)
	for i, obj := range objects {
		i, key := i, obj.Key
		group.Go(func() error {
			data, err := s.storage.Get(groupCtx, s.opts.Bucket, key)
			if err != nil {
				return fmt.Errorf("下载图块 %s 失败: %w", key, err)
			}
			tiles[i] = data
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}

// overlayStep 解码图块，按熵裁剪为正方形，叠加到第 i 个网格位置
func (s *service) overlayStep(ctx context.Context) FoldStep {
	size, perRow := s.opts.TileSize, s.opts.TilesPerRow
	return func(acc *image.NRGBA, i int, tile []byte) (*image.NRGBA, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := imaging.Decode(bytes.NewReader(tile), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", constant.ErrDecode, err)
		}
		return imaging.Overlay(acc, EntropyCrop(img, size), TilePosition(i, size, perRow), 1.0), nil
	}
}

// dropAlpha 丢弃透明通道（JPEG 不支持透明度），保留 RGB 原值
func dropAlpha(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
