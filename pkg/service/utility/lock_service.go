/*
 * @Description: 按键加锁：进程内锁与基于 Redis 的分布式锁
 * @Author: 安知鱼
 * @Date: 2025-07-14 01:41:43
 * @LastEditTime: 2025-11-04 17:20:33
 * @LastEditors: 安知鱼
 */
package utility

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

// KeyLocker 对同一个键的临界区进行互斥。
// Lock 阻塞直到获得锁或 ctx 结束，返回的 unlock 必须被调用一次。
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// PathLocker 提供了一个基于字符串键的进程内锁机制。
// 它能确保对同一个作品的读改写不会在同一进程内被并发执行。
type PathLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewPathLocker 创建一个新的 PathLocker 实例。
func NewPathLocker() *PathLocker {
	return &PathLocker{
		locks: make(map[string]*keyLock),
	}
}

// Lock 为给定的键获取一个锁。
// 如果另一个goroutine已经持有了该键的锁，当前goroutine将会阻塞等待，直到锁被释放或 ctx 结束。
func (l *PathLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lock)
		return nil, fmt.Errorf("%w: %s: %v", constant.ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.release(key, lock)
		})
	}, nil
}

// release 在没有等待者时回收锁对象，避免 map 无限增长
func (l *PathLocker) release(key string, lock *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

// unlockScript 只有持有者（令牌一致）才能删除锁
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker 使用 SET NX PX 实现跨进程的按键互斥，
// 多个实例同时处理同一作品的删除事件时依然串行。
type RedisLocker struct {
	client    *redis.Client
	prefix    string
	ttl       time.Duration
	retryWait time.Duration
}

// NewRedisLocker 创建 RedisLocker。ttl 应大于单次调用的时间预算，防止持有者崩溃后锁永不释放。
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:    client,
		prefix:    prefix,
		ttl:       ttl,
		retryWait: 50 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("获取 Redis 锁 %s 失败: %w", redisKey, err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(l.retryWait):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", constant.ErrLockTimeout, redisKey, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 调用方的 ctx 可能已超时，释放锁使用独立的短超时
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				log.Printf("[RedisLocker] 释放锁 %s 失败: %v（将在 %s 后自动过期）", redisKey, err, l.ttl)
			}
		})
	}, nil
}

// NewKeyLocker 在 Redis 可用时返回分布式锁，否则降级为进程内锁
func NewKeyLocker(client *redis.Client, prefix string, ttl time.Duration) KeyLocker {
	if client == nil {
		log.Println("[KeyLocker] Redis 不可用，作品锁降级为进程内锁")
		return NewPathLocker()
	}
	log.Println("[KeyLocker] 使用 Redis 分布式作品锁")
	return NewRedisLocker(client, prefix, ttl)
}
