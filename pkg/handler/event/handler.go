/*
 * @Description: 负责接收存储事件与条带图请求的HTTP入口。
 *               存储事件同步处理，条带图请求放入后台队列。
 * @Author: 安知鱼
 * @Date: 2025-11-06 15:12:40
 * @LastEditTime: 2025-11-07 10:32:18
 * @LastEditors: 安知鱼
 */
package event_handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-artwork/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/response"
)

// EventDispatcher 处理一批存储事件，第一个失败即中止
type EventDispatcher interface {
	DispatchAll(ctx context.Context, events []model.StorageEvent) ([]*model.InvocationResult, error)
}

// RibbonQueue 把条带图构建请求放入后台队列
type RibbonQueue interface {
	DispatchRibbonBuild(prefix string) error
}

// Handler 负责处理所有与事件相关的HTTP请求。
type Handler struct {
	dispatcher EventDispatcher
	ribbons    RibbonQueue
}

// NewHandler 是 Handler 的构造函数。
func NewHandler(dispatcher EventDispatcher, ribbons RibbonQueue) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		ribbons:    ribbons,
	}
}

// StatusForError 按错误分类返回 HTTP 状态码，只有 5xx 会被上游重新投递
func StatusForError(err error) int {
	switch constant.Classify(err) {
	case constant.KindValidation:
		return http.StatusBadRequest
	case constant.KindNotFound:
		return http.StatusNotFound
	case constant.KindDecode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

// HandleStorageEvent 处理 S3 通知信封或单条存储事件
func (h *Handler) HandleStorageEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "读取请求体失败: "+err.Error())
		return
	}

	events, err := model.ParseStorageEvents(body)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无法解析存储事件: "+err.Error())
		return
	}
	if len(events) == 0 {
		response.Fail(c, http.StatusBadRequest, "请求中没有存储事件")
		return
	}

	results, err := h.dispatcher.DispatchAll(c.Request.Context(), events)
	if err != nil {
		status := StatusForError(err)
		log.Printf("[EventHandler] 事件处理失败 (status=%d, 已完成 %d/%d): %v", status, len(results), len(events), err)
		response.FailWithError(c, status, err)
		return
	}

	response.Success(c, results, "事件处理成功")
}

// HandleRibbonRequest 处理 SNS 信封或单条 {prefix} 请求，构建在后台进行
func (h *Handler) HandleRibbonRequest(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "读取请求体失败: "+err.Error())
		return
	}

	reqs, err := model.ParseRibbonRequests(body)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "无法解析条带图请求: "+err.Error())
		return
	}
	if len(reqs) == 0 {
		response.Fail(c, http.StatusBadRequest, "请求中没有条带图前缀")
		return
	}

	queued := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if err := h.ribbons.DispatchRibbonBuild(req.Prefix); err != nil {
			response.Fail(c, http.StatusServiceUnavailable, "条带图任务入队失败: "+err.Error())
			return
		}
		queued = append(queued, req.Prefix)
	}

	response.SuccessWithStatus(c, http.StatusAccepted, gin.H{"prefixes": queued}, "条带图任务已加入队列")
}

// HandleHealth 返回存活状态与版本信息
func (h *Handler) HandleHealth(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "ok",
		"version": version.GetBuildInfo(),
	}, "ok")
}
