// internal/app/task/broker.go
package task

import (
	"errors"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/ribbon"
)

// ErrBrokerStopped 表示任务代理已停止，不再接收新任务
var ErrBrokerStopped = errors.New("任务代理已停止")

// Broker 是整个后台任务模块的核心协调者。
type Broker struct {
	logger     *slog.Logger
	chain      cron.Chain
	jobQueue   chan Job
	ribbonSvc  ribbon.Service
	jobTimeout time.Duration

	mu      sync.RWMutex
	stopped bool
	workers sync.WaitGroup
}

// NewBroker 是 Broker 的构造函数。workerCount<=0 时使用 CPU 核数。
func NewBroker(ribbonSvc ribbon.Service, workerCount int, jobTimeout time.Duration) *Broker {
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "task_broker")

	broker := &Broker{
		logger: logger,
		chain: cron.NewChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
		),
		jobQueue:   make(chan Job, 1000),
		ribbonSvc:  ribbonSvc,
		jobTimeout: jobTimeout,
	}

	broker.startWorkerPool(workerCount)

	return broker
}

// startWorkerPool 启动固定数量的 worker goroutine 来处理任务。
func (b *Broker) startWorkerPool(workerCount int) {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount <= 0 {
		workerCount = 4
	}
	b.logger.Info("Starting task worker pool", "concurrency", workerCount)

	for i := 0; i < workerCount; i++ {
		workerID := i + 1
		b.workers.Add(1)
		go func() {
			defer b.workers.Done()
			b.logger.Info("Worker started", "worker_id", workerID)
			for job := range b.jobQueue {
				b.logger.Info("Worker picked up a job", "worker_id", workerID, "job_name", job.Name())
				b.chain.Then(job).Run()
				b.logger.Info("Worker finished a job", "worker_id", workerID, "job_name", job.Name())
			}
			b.logger.Info("Worker stopped", "worker_id", workerID)
		}()
	}
}

// Dispatch 将任务发送到队列中。队列已满时阻塞，代理停止后返回 ErrBrokerStopped。
func (b *Broker) Dispatch(job Job) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		return ErrBrokerStopped
	}
	b.jobQueue <- job
	return nil
}

// DispatchRibbonBuild 创建一个条带图构建任务并将其派发到后台执行。
func (b *Broker) DispatchRibbonBuild(prefix string) error {
	job := NewRibbonBuildJob(b.ribbonSvc, prefix, b.jobTimeout)
	if err := b.Dispatch(job); err != nil {
		b.logger.Warn("Failed to queue ribbon build job", slog.String("prefix", prefix), slog.Any("error", err))
		return err
	}
	b.logger.Info("Successfully queued ribbon build job", slog.String("prefix", prefix))
	return nil
}

// Stop 停止接收新任务，并等待队列中已有的任务全部执行完毕。
func (b *Broker) Stop() {
	b.logger.Info("Stopping task broker...")
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	close(b.jobQueue)
	b.mu.Unlock()

	b.workers.Wait()
	b.logger.Info("Task broker gracefully stopped.")
}
