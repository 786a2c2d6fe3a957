/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2025-11-07 11:34:02
 * @LastEditors: 安知鱼
 */
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/anzhiyu-c/anheyu-artwork/cmd/server"
)

func main() {
	// 解析命令行参数
	var (
		configPath    string
		ribbonPrefix  string
		ribbonTimeout time.Duration
	)
	flag.StringVar(&configPath, "config", "data/conf.ini", "配置文件路径")
	flag.StringVar(&ribbonPrefix, "ribbon", "", "为指定前缀构建一次条带图后退出")
	flag.DurationVar(&ribbonTimeout, "ribbon-timeout", 5*time.Minute, "命令行构建条带图的超时时间")
	flag.Parse()

	app, cleanup, err := server.NewApp(configPath)
	if err != nil {
		log.Fatalf("应用初始化失败: %v", err)
	}
	defer cleanup()
	defer app.Stop()

	// 如果指定了条带图前缀，则同步构建并退出
	if ribbonPrefix != "" {
		ctx, cancel := context.WithTimeout(context.Background(), ribbonTimeout)
		defer cancel()

		res, err := app.BuildRibbon(ctx, ribbonPrefix)
		if err != nil {
			log.Printf("构建条带图失败: %v", err)
			return
		}
		if res == nil {
			log.Printf("前缀 %s 下没有缩略图，未生成条带图", ribbonPrefix)
			return
		}
		log.Printf("✅ 条带图已发布: %s (%d 个图块, %dx%d)", res.Key, res.Tiles, res.Width, res.Height)
		return
	}

	app.PrintBanner()

	// 启动应用
	if err := app.Run(); err != nil {
		log.Fatalf("应用运行失败: %v", err)
	}
}
