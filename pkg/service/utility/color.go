// anheyu-artwork/pkg/service/utility/color.go
package utility

import (
	"fmt"
	"image"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/disintegration/imaging"
)

// colorSampleSize K-Means 只需要缩小后的样本，避免对原图逐像素聚类
const colorSampleSize = 160

type ColorService struct{}

func NewColorService() *ColorService {
	return &ColorService{}
}

// PrimaryColor 使用 'prominentcolor' (K-Means算法) 查找主色调，返回 #rrggbb
func (s *ColorService) PrimaryColor(img image.Image) (string, error) {
	sample := imaging.Fit(img, colorSampleSize, colorSampleSize, imaging.Box)

	colors, err := prominentcolor.KmeansWithArgs(
		prominentcolor.ArgumentNoCropping,
		sample,
	)
	if err != nil {
		return "", fmt.Errorf("使用 prominentcolor (K-Means) 提取主色调失败: %w", err)
	}

	if len(colors) == 0 {
		return "", fmt.Errorf("prominentcolor (K-Means) 未能找到任何主色调")
	}

	dominantColor := colors[0].Color

	return fmt.Sprintf("#%02x%02x%02x", dominantColor.R, dominantColor.G, dominantColor.B), nil
}
