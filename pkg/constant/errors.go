/*
 * @Description: 流水线错误定义与分类
 * @Author: 安知鱼
 * @Date: 2025-06-27 12:08:15
 * @LastEditTime: 2025-11-03 16:20:41
 * @LastEditors: 安知鱼
 */
package constant

import "errors"

// 定义流水线相关的标准错误，各阶段通过 fmt.Errorf("...: %w") 包装后向上返回
var (
	// ErrInvalidEvent 表示事件本身不合法（源桶与目标桶相同、未知的事件类型），不可重试
	ErrInvalidEvent = errors.New("无效的存储事件")

	// ErrMalformedKey 表示对象键不满足 identityToken/artworkId/imageId/filename 结构
	ErrMalformedKey = errors.New("对象键格式错误")

	// ErrIdentityNotFound 表示身份令牌在 openid 表中没有对应记录
	ErrIdentityNotFound = errors.New("未找到身份记录")

	// ErrArtworkNotFound 表示 (uref, artworkId) 对应的作品记录不存在
	ErrArtworkNotFound = errors.New("未找到作品记录")

	// ErrEntryNotFound 表示作品的 images 列表中没有匹配的图片条目
	ErrEntryNotFound = errors.New("未找到图片条目")

	// ErrDecode 表示源图片不是受支持的栅格格式或已损坏
	ErrDecode = errors.New("图片解码失败")

	// ErrObjectNotFound 表示对象存储中不存在指定对象
	ErrObjectNotFound = errors.New("对象不存在")

	// ErrIndexConflict 表示条件删除多次因并发修改而失败，交由上层重投递
	ErrIndexConflict = errors.New("索引并发修改冲突")

	// ErrLockTimeout 表示在期限内未能获得作品锁
	ErrLockTimeout = errors.New("获取作品锁超时")
)

// ErrorKind 是错误分类，调用方据此决定是否重新投递
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindDecode     ErrorKind = "decode"
	KindTransient  ErrorKind = "transient"
)

// Classify 将错误映射到错误分类。未识别的错误均视为基础设施的瞬时错误。
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEvent), errors.Is(err, ErrMalformedKey):
		return KindValidation
	case errors.Is(err, ErrIdentityNotFound),
		errors.Is(err, ErrArtworkNotFound),
		errors.Is(err, ErrEntryNotFound):
		return KindNotFound
	case errors.Is(err, ErrDecode):
		return KindDecode
	default:
		return KindTransient
	}
}

// Retriable 仅瞬时错误值得基础设施重新投递整个调用
func (k ErrorKind) Retriable() bool {
	return k == KindTransient
}
