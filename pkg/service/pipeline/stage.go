// pkg/service/pipeline/stage.go
package pipeline

import (
	"context"
	"fmt"
)

// Stage 是流水线中的一个有序步骤，步骤间的数据通过所属调用的状态传递
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// StageError 记录失败的步骤名称，Unwrap 保留原始错误以便分类
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("阶段 %s 失败: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RunStages 按顺序执行各步骤，遇到第一个错误立即返回，已完成的步骤不回滚。
// 每个步骤开始前都会检查 ctx，超出调用期限后不会再提交任何后续写入。
func RunStages(ctx context.Context, stages []Stage) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: stage.Name, Err: err}
		}
		if err := stage.Run(ctx); err != nil {
			return &StageError{Stage: stage.Name, Err: err}
		}
	}
	return nil
}
