/*
 * @Description: 作品索引的领域模型
 * @Author: 安知鱼
 * @Date: 2025-11-02 10:12:40
 * @LastEditTime: 2025-11-04 09:31:18
 * @LastEditors: 安知鱼
 */
package model

// IdentityRecord 是 openid 表中的一条身份记录，由外部身份服务创建，流水线只读。
type IdentityRecord struct {
	ExternalID  string `json:"sub" dynamodbav:"sub"`
	InternalRef string `json:"uref" dynamodbav:"uref"`
}

// ArtworkRef 用于定位一条作品记录
type ArtworkRef struct {
	InternalRef string `json:"uref" dynamodbav:"uref"`
	ArtworkID   string `json:"uuid" dynamodbav:"uuid"`
}

// ArtworkRecord 是 artwork 表中的作品记录。Images 按插入顺序排列。
type ArtworkRecord struct {
	InternalRef string       `json:"uref" dynamodbav:"uref"`
	ArtworkID   string       `json:"uuid" dynamodbav:"uuid"`
	Images      []ImageEntry `json:"images" dynamodbav:"images"`
}

// Ref 返回作品记录的定位键
func (r *ArtworkRecord) Ref() ArtworkRef {
	return ArtworkRef{InternalRef: r.InternalRef, ArtworkID: r.ArtworkID}
}

// ImageEntry 是作品 images 列表中的一项。
// 字段名沿用历史数据格式：旧版本条目只有 key（即原始键），没有 raw-key。
type ImageEntry struct {
	DerivedKey string        `json:"key" dynamodbav:"key"`
	RawKey     string        `json:"raw-key,omitempty" dynamodbav:"raw-key,omitempty"`
	ImageID    string        `json:"uuid" dynamodbav:"uuid"`
	Filename   string        `json:"filename" dynamodbav:"filename"`
	Metadata   ImageMetadata `json:"metadata" dynamodbav:"metadata"`
}

// MatchesKey 判断条目是否以给定键登记
func (e ImageEntry) MatchesKey(key string) bool {
	if key == "" {
		return false
	}
	return e.DerivedKey == key || e.RawKey == key
}

// ImageMetadata 描述的是原始上传图片，而不是衍生图
type ImageMetadata struct {
	Format       string  `json:"format" dynamodbav:"format"`
	Width        int     `json:"width" dynamodbav:"width"`
	Height       int     `json:"height" dynamodbav:"height"`
	ColorSpace   string  `json:"space" dynamodbav:"space"`
	SizeBytes    int64   `json:"size" dynamodbav:"size"`
	Density      float64 `json:"density,omitempty" dynamodbav:"density,omitempty"`
	PrimaryColor string  `json:"primaryColor,omitempty" dynamodbav:"primaryColor,omitempty"`
}

// ObjectKey 是解析后的对象键：identityToken/artworkId/imageId/filename
type ObjectKey struct {
	Raw           string
	IdentityToken string
	ArtworkID     string
	ImageID       string
	Filename      string
}
