/*
 * @Description: 存储事件类型
 * @Author: 安知鱼
 * @Date: 2025-10-09 18:07:37
 * @LastEditTime: 2025-11-03 15:02:10
 * @LastEditors: 安知鱼
 */
package constant

import "strings"

// EventType 是存储变更通知的分类
type EventType string

const (
	EventCreated EventType = "created"
	EventRemoved EventType = "removed"
)

// ParseEventType 兼容 S3 原生事件名（ObjectCreated:Put、ObjectRemoved:Delete 等）与简写标签。
// 无法识别时返回 false。
func ParseEventType(name string) (EventType, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case lower == string(EventCreated), strings.HasPrefix(lower, "objectcreated:"):
		return EventCreated, true
	case lower == string(EventRemoved), strings.HasPrefix(lower, "objectremoved:"):
		return EventRemoved, true
	}
	return "", false
}
