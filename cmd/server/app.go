/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-17 10:35:28
 * @LastEditTime: 2025-11-07 11:20:46
 * @LastEditors: 安知鱼
 */
// anheyu-artwork/cmd/server/app.go
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-artwork/internal/app/middleware"
	"github.com/anzhiyu-c/anheyu-artwork/internal/app/task"
	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/persistence/dynamo"
	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/persistence/memory"
	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/router"
	"github.com/anzhiyu-c/anheyu-artwork/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-artwork/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/config"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/repository"
	event_handler "github.com/anzhiyu-c/anheyu-artwork/pkg/handler/event"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/artwork"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/identity"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/pipeline"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/ribbon"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/thumbnail"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/service/utility"
)

// lockKeyPrefix 是 Redis 中作品锁的键前缀
const lockKeyPrefix = "artwork:lock:"

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg        *config.Config
	engine     *gin.Engine
	taskBroker *task.Broker
	dispatcher *pipeline.Dispatcher
	ribbonSvc  ribbon.Service
}

func (a *App) PrintBanner() {
	banner := `

       █████╗ ██████╗ ████████╗██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗
      ██╔══██╗██╔══██╗╚══██╔══╝██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝
      ███████║██████╔╝   ██║   ██║ █╗ ██║██║   ██║██████╔╝█████╔╝
      ██╔══██║██╔══██╗   ██║   ██║███╗██║██║   ██║██╔══██╗██╔═██╗
      ██║  ██║██║  ██║   ██║   ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗
      ╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝    ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝

`
	log.Println(banner)
	log.Println("--------------------------------------------------------")
	log.Printf(" Anheyu Artwork - Version: %s", version.GetBuildInfo())
	log.Println("--------------------------------------------------------")
}

// NewApp 是应用的构造函数，它执行所有的初始化和依赖注入工作
func NewApp(configPath string) (*App, func(), error) {
	ctx := context.Background()

	// --- Phase 1: 加载外部配置 ---
	if configPath == "" {
		configPath = config.DefaultFilePath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	invocationTimeout := cfg.GetDuration(config.KeyInvocationTimeout)

	// --- Phase 2: 初始化基础设施 ---
	objectStorage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// 尝试连接 Redis（如果失败，作品锁降级为进程内锁）
	redisClient := database.NewRedisClient(ctx, cfg)

	cleanup := func() {
		if redisClient != nil {
			log.Println("执行清理操作：关闭 Redis 连接...")
			redisClient.Close()
		}
	}

	// --- Phase 3: 初始化数据仓库层 ---
	identityRepo, artworkRepo, err := newIndexRepositories(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// --- Phase 4: 初始化业务逻辑层 ---
	locker := newArtworkLocker(redisClient, invocationTimeout)
	colorSvc := utility.NewColorService()
	generator := thumbnail.NewBuiltinImageGenerator(colorSvc)
	identitySvc := identity.NewService(identityRepo)
	artworkSvc := artwork.NewService(artworkRepo, locker)
	dispatcher := pipeline.NewDispatcher(
		objectStorage,
		generator,
		identitySvc,
		artworkSvc,
		sizeTargets(cfg),
		invocationTimeout,
	)
	ribbonSvc := ribbon.NewService(objectStorage, ribbon.Options{
		Bucket:      cfg.GetString(config.KeyBucketPublicPages),
		TileSize:    cfg.GetInt(config.KeyRibbonTileSize),
		TilesPerRow: cfg.GetInt(config.KeyRibbonTilesPerRow),
		Concurrency: cfg.GetInt(config.KeyRibbonConcurrency),
	})

	// --- Phase 5: 初始化后台任务 ---
	taskBroker := task.NewBroker(ribbonSvc, 0, 0)

	// --- Phase 6: 初始化表现层 (Handlers) ---
	eventHandler := event_handler.NewHandler(dispatcher, taskBroker)

	// --- Phase 7: 初始化路由 ---
	invocationLimiter := middleware.InvocationRateLimit(
		cfg.GetInt(config.KeyInvocationsPerMin),
		cfg.GetInt(config.KeyInvocationBurst),
	)
	appRouter := router.NewRouter(eventHandler, invocationLimiter)

	// --- Phase 8: 配置 Gin 引擎 ---
	if cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.DebugMode)
		log.Println("运行模式: Debug (Gin 将打印详细路由日志)")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("运行模式: Release (Gin 启动日志已禁用)")
	}

	engine := gin.Default()
	err = engine.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	if err != nil {
		taskBroker.Stop()
		cleanup()
		return nil, nil, fmt.Errorf("设置信任代理失败: %w", err)
	}
	engine.ForwardedByClientIP = true
	appRouter.Setup(engine)

	app := &App{
		cfg:        cfg,
		engine:     engine,
		taskBroker: taskBroker,
		dispatcher: dispatcher,
		ribbonSvc:  ribbonSvc,
	}

	return app, cleanup, nil
}

// newObjectStorage 按 Storage.Type 创建对象存储网关
func newObjectStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	storageType := constant.StorageType(cfg.GetString(config.KeyStorageType))
	switch storageType {
	case constant.StorageTypeS3:
		awsCfg, err := storage.LoadAWSConfig(ctx, storage.AWSConfigOptions{
			Region:    cfg.GetString(config.KeyStorageRegion),
			AccessKey: cfg.GetString(config.KeyStorageAccessKey),
			SecretKey: cfg.GetString(config.KeyStorageSecretKey),
		})
		if err != nil {
			return nil, err
		}
		client := storage.NewS3Client(awsCfg, cfg.GetString(config.KeyStorageEndpoint))
		log.Println("✅ 对象存储: AWS S3")
		return storage.NewAWSS3Provider(client), nil
	case constant.StorageTypeLocal:
		root := cfg.GetString(config.KeyStorageLocalRoot)
		log.Printf("✅ 对象存储: 本地目录 %s", root)
		return storage.NewLocalProvider(root), nil
	case constant.StorageTypeMemory:
		log.Println("⚠️  对象存储: 内存（进程退出后对象丢失）")
		return storage.NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("不支持的存储类型: %q", storageType)
	}
}

// newIndexRepositories 按 Index.Type 创建身份表与作品表的仓库
func newIndexRepositories(ctx context.Context, cfg *config.Config) (repository.IdentityRepository, repository.ArtworkRepository, error) {
	indexType := constant.IndexType(cfg.GetString(config.KeyIndexType))
	switch indexType {
	case constant.IndexTypeDynamoDB:
		region := cfg.GetString(config.KeyIndexRegion)
		if region == "" {
			region = cfg.GetString(config.KeyStorageRegion)
		}
		awsCfg, err := storage.LoadAWSConfig(ctx, storage.AWSConfigOptions{
			Region:    region,
			AccessKey: cfg.GetString(config.KeyStorageAccessKey),
			SecretKey: cfg.GetString(config.KeyStorageSecretKey),
		})
		if err != nil {
			return nil, nil, err
		}
		client := dynamo.NewClient(awsCfg, cfg.GetString(config.KeyIndexEndpoint))
		log.Printf("✅ 文档存储: DynamoDB (身份表 %s, 作品表 %s)",
			cfg.GetString(config.KeyIndexIdentityTable), cfg.GetString(config.KeyIndexArtworkTable))
		return dynamo.NewIdentityRepo(client, cfg.GetString(config.KeyIndexIdentityTable)),
			dynamo.NewArtworkRepo(client, cfg.GetString(config.KeyIndexArtworkTable)),
			nil
	case constant.IndexTypeMemory:
		log.Println("⚠️  文档存储: 内存（进程退出后数据丢失）")
		store := memory.NewStore()
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("不支持的文档存储类型: %q", indexType)
	}
}

// newArtworkLocker 锁的过期时间取单次调用预算的两倍，保证持锁者超时前不会被抢占
func newArtworkLocker(redisClient *redis.Client, invocationTimeout time.Duration) utility.KeyLocker {
	ttl := 2 * invocationTimeout
	if ttl < 30*time.Second {
		ttl = 30 * time.Second
	}
	return utility.NewKeyLocker(redisClient, lockKeyPrefix, ttl)
}

// sizeTargets 按配置生成三个衍生尺寸，顺序固定为 thumb、image、large
func sizeTargets(cfg *config.Config) []thumbnail.SizeTarget {
	targets := thumbnail.DefaultTargets(
		cfg.GetString(config.KeyBucketThumbs),
		cfg.GetString(config.KeyBucketImages),
		cfg.GetString(config.KeyBucketLargeImages),
	)
	sizes := []int{
		cfg.GetInt(config.KeyDerivativeThumbSize),
		cfg.GetInt(config.KeyDerivativeImageSize),
		cfg.GetInt(config.KeyDerivativeLargeSize),
	}
	quality := cfg.GetInt(config.KeyDerivativeQuality)
	for i := range targets {
		if sizes[i] > 0 {
			targets[i].MaxWidth = sizes[i]
			targets[i].MaxHeight = sizes[i]
		}
		if quality > 0 && quality <= 100 {
			targets[i].Quality = quality
		}
	}
	return targets
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}

func (a *App) Dispatcher() *pipeline.Dispatcher {
	return a.dispatcher
}

// BuildRibbon 同步构建一个前缀的条带图，供命令行使用
func (a *App) BuildRibbon(ctx context.Context, prefix string) (*ribbon.Result, error) {
	return a.ribbonSvc.Build(ctx, prefix)
}

func (a *App) Run() error {
	port := a.cfg.GetString(config.KeyServerPort)
	if port == "" {
		port = "8091"
	}
	fmt.Printf("应用程序启动成功，正在监听端口: %s\n", port)

	return a.engine.Run(":" + port)
}

func (a *App) Stop() {
	if a.taskBroker != nil {
		a.taskBroker.Stop()
		log.Println("后台任务已停止。")
	}
}
