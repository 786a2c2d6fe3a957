/*
 * @Description: Redis 客户端，仅用于跨实例的作品锁
 * @Author: 安知鱼
 * @Date: 2025-06-15 11:30:55
 * @LastEditTime: 2025-11-06 16:02:41
 * @LastEditors: 安知鱼
 */
package database

import (
	"context"
	"log"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 根据配置返回 Redis 客户端或 nil。
// 未配置或连接失败时返回 nil 而不是 error，由上层降级为进程内锁。
func NewRedisClient(ctx context.Context, cfg *config.Config) *redis.Client {
	redisAddr := cfg.GetString(config.KeyRedisAddr)
	if redisAddr == "" {
		log.Println("⚠️  Redis 地址未配置，作品锁将使用进程内锁")
		return nil
	}
	redisDB := cfg.GetInt(config.KeyRedisDB)

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.GetString(config.KeyRedisPassword),
		DB:       redisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  连接 Redis (%s, DB %d) 失败: %v，作品锁将使用进程内锁", redisAddr, redisDB, err)
		rdb.Close()
		return nil
	}

	log.Printf("✅ 成功连接到 Redis (%s, DB %d)", redisAddr, redisDB)
	return rdb
}
