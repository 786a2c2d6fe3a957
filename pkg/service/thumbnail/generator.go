/*
 * @Description: 衍生图的尺寸目标与生成结果
 * @Author: 安知鱼
 * @Date: 2025-07-12 16:09:46
 * @LastEditTime: 2025-11-05 10:14:02
 * @LastEditors: 安知鱼
 */
package thumbnail

import "github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"

// SizeTarget 描述一个衍生图尺寸：等比缩放到 MaxWidth×MaxHeight 以内，从不放大。
type SizeTarget struct {
	// Name 是尺寸名称 (例如 "thumb", "image", "large")。
	Name string
	// Bucket 是该尺寸衍生图上传的目标存储桶。
	Bucket    string
	MaxWidth  int
	MaxHeight int
	// Quality 是 JPEG 编码质量 (1-100)。
	Quality int
}

// Derivative 是一个尺寸目标编码后的结果
type Derivative struct {
	Target      SizeTarget
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// Result 是生成器成功处理后返回的结果。
// Derivatives 的顺序与传入的尺寸目标一致；Metadata 描述的是原图。
type Result struct {
	Derivatives []Derivative
	Metadata    model.ImageMetadata
}

const (
	MaxThumbDimension      = 240
	MaxImageDimension      = 480
	MaxLargeImageDimension = 960
	DefaultQuality         = 100
)

// DefaultTargets 返回默认的三个尺寸：thumb、image、large，处理顺序固定
func DefaultTargets(thumbsBucket, imagesBucket, largeBucket string) []SizeTarget {
	return []SizeTarget{
		{Name: "thumb", Bucket: thumbsBucket, MaxWidth: MaxThumbDimension, MaxHeight: MaxThumbDimension, Quality: DefaultQuality},
		{Name: "image", Bucket: imagesBucket, MaxWidth: MaxImageDimension, MaxHeight: MaxImageDimension, Quality: DefaultQuality},
		{Name: "large", Bucket: largeBucket, MaxWidth: MaxLargeImageDimension, MaxHeight: MaxLargeImageDimension, Quality: DefaultQuality},
	}
}
