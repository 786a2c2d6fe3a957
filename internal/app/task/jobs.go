/*
 * @Description: 后台任务接口
 * @Author: 安知鱼
 * @Date: 2025-07-12 16:09:46
 * @LastEditTime: 2025-11-06 11:20:05
 * @LastEditors: 安知鱼
 */
// internal/app/task/jobs.go
package task

// Job 与 cron.Job 接口兼容。
type Job interface {
	Run()
	Name() string
}

// FailableJob 是可以报告执行结果的任务，日志装饰器会在 Run 之后读取 Err。
type FailableJob interface {
	Job
	Err() error
}
