/*
 * @Description: 调用频率限制中间件
 * @Author: 安知鱼
 * @Date: 2025-11-08 00:00:00
 * @LastEditTime: 2025-11-08 15:59:28
 * @LastEditors: 安知鱼
 */
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/response"
)

// InvocationRateLimit 对事件入口做全局限流，保护下游的对象存储与文档存储。
// 事件通常来自同一个通知源，所以不区分客户端 IP。
// requestsPerMinute<=0 时不限流；被拒绝的调用返回 429，由上游稍后重新投递。
func InvocationRateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			response.Fail(c, http.StatusTooManyRequests, "调用过于频繁，请稍后重新投递")
			c.Abort()
			return
		}
		c.Next()
	}
}
