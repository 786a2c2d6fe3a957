/*
 * @Description: 对象键语法：identityToken/artworkId/imageId/filename
 * @Author: 安知鱼
 * @Date: 2025-11-02 14:03:51
 * @LastEditTime: 2025-11-04 09:12:26
 * @LastEditors: 安知鱼
 */
package objectkey

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
)

const segmentCount = 4

// Decode 还原事件中的对象键。S3 通知里空格被编码为 '+'，其余字符为百分号编码。
func Decode(rawKey string) (string, error) {
	decoded, err := url.PathUnescape(strings.ReplaceAll(rawKey, "+", " "))
	if err != nil {
		return "", fmt.Errorf("%w: 无法解码 '%s': %v", constant.ErrMalformedKey, rawKey, err)
	}
	return decoded, nil
}

// Parse 将已解码的对象键拆分为四段，任何一段缺失或为空都立即失败
func Parse(decodedKey string) (*model.ObjectKey, error) {
	parts := strings.Split(decodedKey, "/")
	if len(parts) != segmentCount {
		return nil, fmt.Errorf("%w: '%s' 包含 %d 段，应为 %d 段", constant.ErrMalformedKey, decodedKey, len(parts), segmentCount)
	}
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: '%s' 的第 %d 段为空", constant.ErrMalformedKey, decodedKey, i+1)
		}
	}

	return &model.ObjectKey{
		Raw:           decodedKey,
		IdentityToken: parts[0],
		ArtworkID:     parts[1],
		ImageID:       parts[2],
		Filename:      parts[3],
	}, nil
}

// DecodeAndParse 是 Decode 与 Parse 的组合
func DecodeAndParse(rawKey string) (*model.ObjectKey, error) {
	decoded, err := Decode(rawKey)
	if err != nil {
		return nil, err
	}
	return Parse(decoded)
}

// DerivedFilename 将文件扩展名替换为衍生图统一的 .jpg；没有扩展名时直接追加
func DerivedFilename(filename string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + constant.DerivedExtension
}

// DerivedKey 返回衍生图的对象键，只替换最后一段的扩展名
func DerivedKey(key *model.ObjectKey) string {
	return strings.Join([]string{
		key.IdentityToken,
		key.ArtworkID,
		key.ImageID,
		DerivedFilename(key.Filename),
	}, "/")
}
