/*
 * @Description: 条带图构建任务
 * @Author: 安知鱼
 * @Date: 2025-11-05 17:02:33
 * @LastEditTime: 2025-11-06 11:18:40
 * @LastEditors: 安知鱼
 */
// internal/app/task/job_ribbon.go
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/ribbon"
)

// RibbonBuildJob 为一个展览前缀构建条带图
type RibbonBuildJob struct {
	ribbonSvc ribbon.Service
	prefix    string
	timeout   time.Duration

	result *ribbon.Result
	err    error
}

// NewRibbonBuildJob 是任务的构造函数。timeout<=0 时使用 5 分钟。
func NewRibbonBuildJob(ribbonSvc ribbon.Service, prefix string, timeout time.Duration) *RibbonBuildJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &RibbonBuildJob{
		ribbonSvc: ribbonSvc,
		prefix:    prefix,
		timeout:   timeout,
	}
}

// Run 是 Job 接口要求实现的方法
func (j *RibbonBuildJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.result, j.err = j.ribbonSvc.Build(ctx, j.prefix)
}

// Name 方法让日志包装器可以打印出更有意义的任务名
func (j *RibbonBuildJob) Name() string {
	return fmt.Sprintf("RibbonBuildJob(Prefix: %s)", j.prefix)
}

func (j *RibbonBuildJob) Err() error {
	return j.err
}

// Result 返回构建结果，前缀下没有缩略图时为 nil
func (j *RibbonBuildJob) Result() *ribbon.Result {
	return j.result
}
