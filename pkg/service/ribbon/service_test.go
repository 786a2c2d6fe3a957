package ribbon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

const pagesBucket = "public-pages"

func TestCanvasSize(t *testing.T) {
	tests := []struct {
		name            string
		n, tile, perRow int
		wantW, wantH    int
	}{
		{name: "三行且最后一行3个", n: 21, tile: 40, perRow: 9, wantW: 360, wantH: 120},
		{name: "不足一行", n: 4, tile: 40, perRow: 9, wantW: 160, wantH: 40},
		{name: "恰好一行", n: 9, tile: 40, perRow: 9, wantW: 360, wantH: 40},
		{name: "刚好换行", n: 10, tile: 40, perRow: 9, wantW: 360, wantH: 80},
		{name: "单个图块", n: 1, tile: 40, perRow: 9, wantW: 40, wantH: 40},
		{name: "没有图块", n: 0, tile: 40, perRow: 9, wantW: 0, wantH: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := CanvasSize(tt.n, tt.tile, tt.perRow)
			require.Equal(t, tt.wantW, w)
			require.Equal(t, tt.wantH, h)
		})
	}
}

func TestTilePosition(t *testing.T) {
	require.Equal(t, image.Pt(0, 0), TilePosition(0, 40, 9))
	require.Equal(t, image.Pt(320, 0), TilePosition(8, 40, 9))
	require.Equal(t, image.Pt(0, 40), TilePosition(9, 40, 9))
	require.Equal(t, image.Pt(80, 80), TilePosition(20, 40, 9))
}

func TestEntropyCropKeepsDetailedRegion(t *testing.T) {
	// 左侧纯色，右侧棋盘格
	src := imaging.New(120, 40, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	for y := 0; y < 40; y++ {
		for x := 80; x < 120; x++ {
			if (x/2+y/2)%2 == 0 {
				src.Set(x, y, color.NRGBA{A: 255})
			} else {
				src.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}

	crop := EntropyCrop(src, 40)
	require.Equal(t, image.Rect(0, 0, 40, 40), crop.Bounds())

	flat := imaging.Crop(src, image.Rect(0, 0, 40, 40))
	require.Greater(t, luminanceEntropy(crop, crop.Bounds()), luminanceEntropy(flat, flat.Bounds()))
}

func TestEntropyCropCoversSmallSources(t *testing.T) {
	crop := EntropyCrop(imaging.New(10, 30, color.White), 40)
	require.Equal(t, image.Rect(0, 0, 40, 40), crop.Bounds())
}

func TestFoldIsSequentialAndAborts(t *testing.T) {
	var order []int
	step := func(acc *image.NRGBA, i int, tile []byte) (*image.NRGBA, error) {
		order = append(order, i)
		if string(tile) == "bad" {
			return nil, errors.New("boom")
		}
		next := imaging.Clone(acc)
		next.Pix[0] += 1
		return next, nil
	}

	acc, err := Fold(imaging.New(1, 1, color.NRGBA{}), [][]byte{[]byte("a"), []byte("b"), []byte("c")}, step)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, order)
	require.Equal(t, uint8(3), acc.Pix[0])

	order = nil
	acc, err = Fold(imaging.New(1, 1, color.NRGBA{}), [][]byte{[]byte("a"), []byte("bad"), []byte("c")}, step)
	require.Error(t, err)
	require.Nil(t, acc)
	require.Equal(t, []int{0, 1}, order)
}

func tileColor(i int) color.NRGBA {
	if i%2 == 0 {
		return color.NRGBA{R: 220, G: 20, B: 20, A: 255}
	}
	return color.NRGBA{R: 20, G: 20, B: 220, A: 255}
}

func putTiles(t *testing.T, store *storage.MemoryProvider, prefix string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, imaging.New(60, 45, tileColor(i)), &jpeg.Options{Quality: 95}))
		key := fmt.Sprintf("%sthumbs/%03d.jpg", prefix, i)
		require.NoError(t, store.Put(context.Background(), pagesBucket, key, buf.Bytes(), "image/jpeg"))
	}
}

func near(t *testing.T, want color.NRGBA, got color.Color) {
	t.Helper()
	r, g, b, _ := got.RGBA()
	diff := func(a uint8, v uint32) int {
		d := int(a) - int(v>>8)
		if d < 0 {
			return -d
		}
		return d
	}
	require.LessOrEqual(t, diff(want.R, r), 24, "R")
	require.LessOrEqual(t, diff(want.G, g), 24, "G")
	require.LessOrEqual(t, diff(want.B, b), 24, "B")
}

func TestBuildPublishesRibbon(t *testing.T) {
	store := storage.NewMemoryProvider()
	putTiles(t, store, "exhibitions/e1/", 21)
	// 目录占位对象不应被当作图块
	require.NoError(t, store.Put(context.Background(), pagesBucket, "exhibitions/e1/thumbs/", nil, ""))

	svc := NewService(store, Options{Bucket: pagesBucket})
	res, err := svc.Build(context.Background(), "exhibitions/e1")
	require.NoError(t, err)
	require.Equal(t, &Result{Key: "exhibitions/e1/ribbon.jpg", Tiles: 21, Width: 360, Height: 120}, res)

	obj, ok := store.Object(pagesBucket, "exhibitions/e1/ribbon.jpg")
	require.True(t, ok)
	require.True(t, obj.PublicRead)
	require.Equal(t, constant.DerivedContentType, obj.ContentType)

	img, format, err := image.Decode(bytes.NewReader(obj.Data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, image.Rect(0, 0, 360, 120), img.Bounds())

	for _, i := range []int{0, 1, 8, 9, 20} {
		p := TilePosition(i, DefaultTileSize, DefaultTilesPerRow)
		near(t, tileColor(i), img.At(p.X+20, p.Y+20))
	}
	// 第三行第 4 列之后没有图块，保留底色
	near(t, color.NRGBA{R: 255, G: 255, B: 255}, img.At(300, 100))
}

func TestBuildWithoutTilesIsNoop(t *testing.T) {
	store := storage.NewMemoryProvider()
	putTiles(t, store, "exhibitions/other/", 3)

	res, err := NewService(store, Options{Bucket: pagesBucket}).Build(context.Background(), "exhibitions/empty/")
	require.NoError(t, err)
	require.Nil(t, res)
	_, ok := store.Object(pagesBucket, "exhibitions/empty/ribbon.jpg")
	require.False(t, ok)
}

func TestBuildAbortsOnBadTile(t *testing.T) {
	store := storage.NewMemoryProvider()
	putTiles(t, store, "ex/", 5)
	require.NoError(t, store.Put(context.Background(), pagesBucket, "ex/thumbs/002.jpg", []byte("corrupt"), "image/jpeg"))

	_, err := NewService(store, Options{Bucket: pagesBucket}).Build(context.Background(), "ex/")
	require.ErrorIs(t, err, constant.ErrDecode)
	_, ok := store.Object(pagesBucket, "ex/ribbon.jpg")
	require.False(t, ok, "失败时不能发布部分条带图")
}

func TestBuildRejectsEmptyPrefix(t *testing.T) {
	_, err := NewService(storage.NewMemoryProvider(), Options{Bucket: pagesBucket}).Build(context.Background(), "")
	require.ErrorIs(t, err, constant.ErrInvalidEvent)
}

func TestBuildHonoursCancellation(t *testing.T) {
	store := storage.NewMemoryProvider()
	putTiles(t, store, "ex/", 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(store, Options{Bucket: pagesBucket}).Build(ctx, "ex/")
	require.ErrorIs(t, err, context.Canceled)
	_, ok := store.Object(pagesBucket, "ex/ribbon.jpg")
	require.False(t, ok)
}
