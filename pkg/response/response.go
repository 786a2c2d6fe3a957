/*
 * @Description: 统一的HTTP响应信封
 * @Author: 安知鱼
 * @Date: 2025-06-15 12:16:18
 * @LastEditTime: 2025-11-07 10:12:35
 * @LastEditors: 安知鱼
 */
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

// Response 是统一的API返回结构体。
// Kind 与 Retriable 只在事件处理失败时出现，上游据此决定是否重新投递。
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Kind      string      `json:"kind,omitempty"`
	Retriable bool        `json:"retriable,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// FailWithError 失败响应，附带错误分类
func FailWithError(c *gin.Context, code int, err error) {
	kind := constant.Classify(err)
	c.JSON(code, Response{
		Code:      code,
		Message:   err.Error(),
		Kind:      string(kind),
		Retriable: kind.Retriable(),
	})
}

// SuccessWithStatus 成功响应，但允许自定义 HTTP 状态码，例如 202 Accepted。
func SuccessWithStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
