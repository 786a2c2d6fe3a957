// pkg/service/thumbnail/builtin_image_generator.go

/*
 * @Description: 使用 Go 原生库与 imaging 生成多尺寸 JPEG 衍生图。
 *               源图只解码一次，各尺寸从同一份只读的解码结果并发生成。
 * @Author: 安知鱼
 * @Date: 2025-07-12 16:09:46
 * @LastEditTime: 2025-11-05 11:40:27
 * @LastEditors: 安知鱼
 */
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/utility"
)

// BuiltinImageGenerator 使用纯Go库处理图片
type BuiltinImageGenerator struct {
	colorSvc *utility.ColorService
}

// NewBuiltinImageGenerator 是 BuiltinImageGenerator 的构造函数。colorSvc 为 nil 时不提取主色调。
func NewBuiltinImageGenerator(colorSvc *utility.ColorService) *BuiltinImageGenerator {
	return &BuiltinImageGenerator{colorSvc: colorSvc}
}

// Generate 解码源图，按 targets 的顺序返回每个尺寸的 JPEG 编码结果以及原图元数据。
// sizeBytes 为事件中报告的原图大小，为 0 时使用缓冲区长度。
func (g *BuiltinImageGenerator) Generate(ctx context.Context, source []byte, sizeBytes int64, targets []SizeTarget) (*Result, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("%w: 无法识别图片格式: %v", constant.ErrDecode, err)
	}

	// 打开并解码源图片，自动处理方向（例如手机拍摄的照片）
	srcImage, err := imaging.Decode(bytes.NewReader(source), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: 使用imaging库解码 %s 图片失败: %v", constant.ErrDecode, format, err)
	}

	if sizeBytes <= 0 {
		sizeBytes = int64(len(source))
	}
	metadata := captureMetadata(source, cfg, format, sizeBytes)
	if g.colorSvc != nil {
		if primary, err := g.colorSvc.PrimaryColor(srcImage); err == nil {
			metadata.PrimaryColor = primary
		} else {
			log.Printf("[BuiltinGenerator] 提取主色调失败（忽略）: %v", err)
		}
	}

	derivatives := make([]Derivative, len(targets))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			d, err := renderDerivative(srcImage, target)
			if err != nil {
				return err
			}
			derivatives[i] = d
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	log.Printf("[BuiltinGenerator] 原图 %s %dx%d 生成 %d 个衍生图", format, cfg.Width, cfg.Height, len(derivatives))
	return &Result{Derivatives: derivatives, Metadata: metadata}, nil
}

// renderDerivative 等比缩放到目标框内（不放大），统一编码为 JPEG
func renderDerivative(src image.Image, target SizeTarget) (Derivative, error) {
	resized := FitWithoutEnlargement(src, target.MaxWidth, target.MaxHeight)

	quality := target.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return Derivative{}, fmt.Errorf("编码 %s 衍生图失败: %w", target.Name, err)
	}

	bounds := resized.Bounds()
	return Derivative{
		Target:      target,
		Data:        buf.Bytes(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ContentType: constant.DerivedContentType,
	}, nil
}

// FitWithoutEnlargement 对应 fit=inside + withoutEnlargement：
// 原图已在框内时原样返回尺寸，否则保持宽高比缩小。
func FitWithoutEnlargement(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= maxWidth && bounds.Dy() <= maxHeight {
		return src
	}
	return imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)
}
