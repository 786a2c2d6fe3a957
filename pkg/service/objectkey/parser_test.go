package objectkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

func TestDecodeAndParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		token    string
		artwork  string
		image    string
		filename string
	}{
		{
			name:     "标准键",
			raw:      "userA/art1/img1/photo.png",
			token:    "userA",
			artwork:  "art1",
			image:    "img1",
			filename: "photo.png",
		},
		{
			name:     "加号还原为空格",
			raw:      "userA/art1/img1/my+photo.jpg",
			token:    "userA",
			artwork:  "art1",
			image:    "img1",
			filename: "my photo.jpg",
		},
		{
			name:     "百分号编码的竖线与中文",
			raw:      "facebook%7C10208314583117362/b154/1073/%E7%94%BB.jpg",
			token:    "facebook|10208314583117362",
			artwork:  "b154",
			image:    "1073",
			filename: "画.jpg",
		},
		{
			name:     "编码后的加号保留",
			raw:      "u/a/i/a%2Bb.png",
			token:    "u",
			artwork:  "a",
			image:    "i",
			filename: "a+b.png",
		},
		{name: "少于四段", raw: "userA/art1/photo.png", wantErr: true},
		{name: "多于四段", raw: "userA/art1/img1/sub/photo.png", wantErr: true},
		{name: "空段", raw: "userA//img1/photo.png", wantErr: true},
		{name: "末尾斜杠", raw: "userA/art1/img1/", wantErr: true},
		{name: "非法百分号编码", raw: "userA/art1/img1/%zz.png", wantErr: true},
		{name: "空字符串", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DecodeAndParse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, constant.ErrMalformedKey))
				require.Equal(t, constant.KindValidation, constant.Classify(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.token, key.IdentityToken)
			require.Equal(t, tt.artwork, key.ArtworkID)
			require.Equal(t, tt.image, key.ImageID)
			require.Equal(t, tt.filename, key.Filename)
		})
	}
}

func TestDerivedKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"userA/art1/img1/photo.png", "userA/art1/img1/photo.jpg"},
		{"userA/art1/img1/photo.JPEG", "userA/art1/img1/photo.jpg"},
		{"userA/art1/img1/photo.jpg", "userA/art1/img1/photo.jpg"},
		{"userA/art1/img1/archive.tar.gz", "userA/art1/img1/archive.tar.jpg"},
		{"userA/art1/img1/noext", "userA/art1/img1/noext.jpg"},
		// 扩展名替换只作用于文件名，不能跨越路径段
		{"user.name/art1/img1/noext", "user.name/art1/img1/noext.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			key, err := Parse(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, DerivedKey(key))
		})
	}
}
