/*
 * @Description: HTTP 路由
 * @Author: 安知鱼
 * @Date: 2025-06-15 11:30:55
 * @LastEditTime: 2025-11-07 10:40:26
 * @LastEditors: 安知鱼
 */
// anheyu-artwork/internal/infra/router/router.go
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-artwork/internal/app/middleware"
	event_handler "github.com/anzhiyu-c/anheyu-artwork/pkg/handler/event"
)

// NoCacheMiddleware 全局反缓存中间件，确保事件响应不会被中间代理缓存
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// Router 封装了应用的所有路由和其依赖的处理器。
type Router struct {
	eventHandler      *event_handler.Handler
	invocationLimiter gin.HandlerFunc
}

// NewRouter 是 Router 的构造函数。invocationLimiter 为 nil 时不限流。
func NewRouter(eventHandler *event_handler.Handler, invocationLimiter gin.HandlerFunc) *Router {
	if invocationLimiter == nil {
		invocationLimiter = middleware.InvocationRateLimit(0, 0)
	}
	return &Router{
		eventHandler:      eventHandler,
		invocationLimiter: invocationLimiter,
	}
}

// Setup 注册全部路由
func (r *Router) Setup(engine *gin.Engine) {
	apiGroup := engine.Group("/api")
	apiGroup.Use(NoCacheMiddleware())

	apiGroup.GET("/health", r.eventHandler.HandleHealth)
	r.registerEventRoutes(apiGroup)
}

func (r *Router) registerEventRoutes(api *gin.RouterGroup) {
	events := api.Group("/events").Use(r.invocationLimiter)
	{
		events.POST("/storage", r.eventHandler.HandleStorageEvent)
		events.POST("/ribbon", r.eventHandler.HandleRibbonRequest)
	}
}
