/*
 * @Description: 采集原图元数据（格式、尺寸、色彩空间、大小、分辨率）
 * @Author: 安知鱼
 * @Date: 2025-11-05 09:20:44
 * @LastEditTime: 2025-11-05 11:02:19
 * @LastEditors: 安知鱼
 */
package thumbnail

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/dsoprea/go-exif/v3"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
)

func captureMetadata(source []byte, cfg image.Config, format string, sizeBytes int64) model.ImageMetadata {
	return model.ImageMetadata{
		Format:     format,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ColorSpace: colorSpaceName(cfg.ColorModel),
		SizeBytes:  sizeBytes,
		Density:    exifDensity(source),
	}
}

// colorSpaceName 沿用 srgb / b-w / cmyk 的命名
func colorSpaceName(m color.Model) string {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return "b-w"
	case color.CMYKModel:
		return "cmyk"
	default:
		return "srgb"
	}
}

// exifDensity 从 EXIF 的 XResolution 读取 DPI，没有 EXIF 时返回 0
func exifDensity(source []byte) float64 {
	exifData, err := exif.SearchAndExtractExif(source)
	if err != nil || len(exifData) == 0 {
		return 0
	}

	entries, _, err := exif.GetFlatExifData(exifData, nil)
	if err != nil {
		return 0
	}

	var resolution float64
	unit := "2" // 默认英寸
	for _, tag := range entries {
		// 只取 IFD0 的值，缩略图 IFD1 也带有 XResolution
		if tag.IfdPath != "IFD" {
			continue
		}
		value := strings.ReplaceAll(tag.FormattedFirst, "\x00", "")
		switch tag.TagName {
		case "XResolution":
			if f, err := parseRational(value); err == nil {
				resolution = f
			}
		case "ResolutionUnit":
			unit = value
		}
	}

	// 单位为厘米时换算为 DPI
	if unit == "3" {
		resolution *= 2.54
	}
	return resolution
}

func parseRational(s string) (float64, error) {
	parts := strings.Split(s, "/")
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0, fmt.Errorf("无效的分数: %s", s)
		}
		return num / den, nil
	}
	return strconv.ParseFloat(s, 64)
}
