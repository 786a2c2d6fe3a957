/*
 * @Description: 条带图的网格布局
 * @Author: 安知鱼
 * @Date: 2025-11-04 10:20:37
 * @LastEditTime: 2025-11-04 10:20:37
 * @LastEditors: 安知鱼
 */
package ribbon

import "image"

// CanvasSize 计算 n 个边长为 tile 的图块、每行 perRow 个时的画布尺寸。
// 例如 21 个 40px 图块、每行 9 个，得到 360×120（三行，最后一行 3 个）。
func CanvasSize(n, tile, perRow int) (width, height int) {
	if n <= 0 || tile <= 0 || perRow <= 0 {
		return 0, 0
	}
	cols := min(n, perRow)
	rows := (n + perRow - 1) / perRow
	return tile * cols, tile * rows
}

// TilePosition 返回第 i 个图块（从 0 开始）左上角在画布中的位置
func TilePosition(i, tile, perRow int) image.Point {
	return image.Pt(tile*(i%perRow), tile*(i/perRow))
}
