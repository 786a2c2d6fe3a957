// pkg/service/ribbon/entropy.go
package ribbon

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// entropyProbes 是沿长边尝试的窗口位置数上限
const entropyProbes = 32

// EntropyCrop 先把图片等比缩放到刚好覆盖 size×size，
// 再沿长边寻找亮度直方图熵最大的 size×size 窗口，保留画面中细节最多的部分。
func EntropyCrop(src image.Image, size int) *image.NRGBA {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return imaging.New(size, size, color.NRGBA{})
	}

	var scaled *image.NRGBA
	if b.Dx() >= b.Dy() {
		scaled = imaging.Resize(src, 0, size, imaging.Lanczos)
	} else {
		scaled = imaging.Resize(src, size, 0, imaging.Lanczos)
	}

	sb := scaled.Bounds()
	horizontal := sb.Dx() > size
	span := sb.Dx() - size
	if !horizontal {
		span = sb.Dy() - size
	}
	if span <= 0 {
		return imaging.Crop(scaled, image.Rect(0, 0, size, size))
	}

	step := max(1, span/entropyProbes)
	bestOffset, bestEntropy := 0, -1.0
	for offset := 0; ; offset += step {
		if offset > span {
			offset = span
		}
		window := image.Rect(0, offset, size, offset+size)
		if horizontal {
			window = image.Rect(offset, 0, offset+size, size)
		}
		if e := luminanceEntropy(scaled, window); e > bestEntropy {
			bestOffset, bestEntropy = offset, e
		}
		if offset == span {
			break
		}
	}

	if horizontal {
		return imaging.Crop(scaled, image.Rect(bestOffset, 0, bestOffset+size, size))
	}
	return imaging.Crop(scaled, image.Rect(0, bestOffset, size, bestOffset+size))
}

// luminanceEntropy 计算窗口内亮度直方图的香农熵（单位 bit）
func luminanceEntropy(img *image.NRGBA, window image.Rectangle) float64 {
	var hist [256]int
	total := 0
	for y := window.Min.Y; y < window.Max.Y; y++ {
		row := img.Pix[y*img.Stride:]
		for x := window.Min.X; x < window.Max.X; x++ {
			p := row[x*4 : x*4+3]
			lum := (299*int(p[0]) + 587*int(p[1]) + 114*int(p[2])) / 1000
			hist[lum]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	var entropy float64
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
