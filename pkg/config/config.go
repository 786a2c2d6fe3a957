/*
 * @Description: 统一配置管理 (手动加载 ini + 环境变量覆盖)
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2025-11-06 14:05:32
 * @LastEditors: 安知鱼
 */
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// DefaultFilePath 是默认的配置文件位置
const DefaultFilePath = "data/conf.ini"

// EnvPrefix 是环境变量前缀，例如 ARTWORK_BUCKET_THUMBS
const EnvPrefix = "ARTWORK"

const (
	KeyServerPort        = "System.Port"
	KeyServerDebug       = "System.Debug"
	KeyInvocationTimeout = "System.InvocationTimeout"
	KeyInvocationsPerMin = "System.InvocationsPerMinute"
	KeyInvocationBurst   = "System.InvocationBurst"

	KeyStorageType      = "Storage.Type"
	KeyStorageRegion    = "Storage.Region"
	KeyStorageEndpoint  = "Storage.Endpoint"
	KeyStorageAccessKey = "Storage.AccessKey"
	KeyStorageSecretKey = "Storage.SecretKey"
	KeyStorageLocalRoot = "Storage.LocalRoot"

	KeyBucketImages      = "Bucket.Images"
	KeyBucketThumbs      = "Bucket.Thumbs"
	KeyBucketLargeImages = "Bucket.LargeImages"
	KeyBucketPublicPages = "Bucket.PublicPages"

	KeyIndexType          = "Index.Type"
	KeyIndexRegion        = "Index.Region"
	KeyIndexEndpoint      = "Index.Endpoint"
	KeyIndexIdentityTable = "Index.IdentityTable"
	KeyIndexArtworkTable  = "Index.ArtworkTable"

	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"

	KeyDerivativeQuality   = "Derivative.Quality"
	KeyDerivativeThumbSize = "Derivative.ThumbSize"
	KeyDerivativeImageSize = "Derivative.ImageSize"
	KeyDerivativeLargeSize = "Derivative.LargeSize"

	KeyRibbonTileSize    = "Ribbon.TileSize"
	KeyRibbonTilesPerRow = "Ribbon.TilesPerRow"
	KeyRibbonConcurrency = "Ribbon.Concurrency"
)

// 定义所有已知的配置键
var allKeys = []string{
	KeyServerPort, KeyServerDebug, KeyInvocationTimeout, KeyInvocationsPerMin, KeyInvocationBurst,
	KeyStorageType, KeyStorageRegion, KeyStorageEndpoint, KeyStorageAccessKey, KeyStorageSecretKey, KeyStorageLocalRoot,
	KeyBucketImages, KeyBucketThumbs, KeyBucketLargeImages, KeyBucketPublicPages,
	KeyIndexType, KeyIndexRegion, KeyIndexEndpoint, KeyIndexIdentityTable, KeyIndexArtworkTable,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyDerivativeQuality, KeyDerivativeThumbSize, KeyDerivativeImageSize, KeyDerivativeLargeSize,
	KeyRibbonTileSize, KeyRibbonTilesPerRow, KeyRibbonConcurrency,
}

// defaults 是配置文件与环境变量都没有提供时使用的值，沿用原有部署的桶名与表名
var defaults = map[string]any{
	KeyServerPort:          8091,
	KeyServerDebug:         false,
	KeyInvocationTimeout:   "60s",
	KeyStorageType:         "aws_s3",
	KeyStorageRegion:       "us-east-1",
	KeyStorageLocalRoot:    "data/storage",
	KeyBucketImages:        "helodali-images",
	KeyBucketThumbs:        "helodali-thumbs",
	KeyBucketLargeImages:   "helodali-large-images",
	KeyBucketPublicPages:   "helodali-public-pages",
	KeyIndexType:           "dynamodb",
	KeyIndexIdentityTable:  "openid",
	KeyIndexArtworkTable:   "artwork",
	KeyRedisDB:             0,
	KeyDerivativeQuality:   100,
	KeyDerivativeThumbSize: 240,
	KeyDerivativeImageSize: 480,
	KeyDerivativeLargeSize: 960,
	KeyRibbonTileSize:      40,
	KeyRibbonTilesPerRow:   9,
	KeyRibbonConcurrency:   8,
}

type Config struct {
	vp *viper.Viper
}

// NewConfig 从 data/conf.ini 加载配置
func NewConfig() (*Config, error) {
	return Load(DefaultFilePath)
}

// Load 手动加载配置，优先级：环境变量 > 配置文件 > 内置默认值
func Load(filePath string) (*Config, error) {
	vp := viper.New()
	for key, value := range defaults {
		vp.SetDefault(key, value)
	}

	// --- 步骤 1: 使用 go-ini 从文件加载配置 ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
			} else {
				log.Printf("✅ 已创建默认配置文件: %s", filePath)
				iniCfg, err = ini.Load(filePath)
				if err != nil {
					log.Printf("警告: 重新加载配置文件失败: %v", err)
				}
			}
		} else {
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == ini.DefaultSection {
					viperKey = key.Name()
				}
				// 留空的键不覆盖默认值
				if strings.TrimSpace(key.Value()) == "" {
					continue
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Printf("从 %s 文件加载了配置。", filePath)
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	for _, key := range allKeys {
		// 构建环境变量名，例如 ARTWORK_BUCKET_THUMBS
		envVarName := fmt.Sprintf("%s_%s", EnvPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// GetDuration 支持 "90s"、"2m" 这样的写法，纯数字按秒处理
func (c *Config) GetDuration(key string) time.Duration {
	raw := strings.TrimSpace(c.vp.GetString(key))
	if raw == "" {
		return 0
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return time.Duration(c.vp.GetInt(key)) * time.Second
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false
# 单次事件处理的时间预算
InvocationTimeout = 60s
# 事件入口限流，0 表示不限流
InvocationsPerMinute = 0
InvocationBurst = 0

# 对象存储：aws_s3 / local / memory
# Endpoint 留空时使用 AWS 官方地址，填写后使用 path-style（例如 MinIO）
[Storage]
Type = aws_s3
Region = us-east-1
Endpoint =
AccessKey =
SecretKey =
LocalRoot = data/storage

[Bucket]
Images = helodali-images
Thumbs = helodali-thumbs
LargeImages = helodali-large-images
PublicPages = helodali-public-pages

# 身份表与作品表：dynamodb / memory
[Index]
Type = dynamodb
Region =
Endpoint =
IdentityTable = openid
ArtworkTable = artwork

# Redis 配置（可选）
# 不配置 Addr 时，作品锁降级为进程内锁，多实例部署时请配置
[Redis]
Addr =
Password =
DB = 0

[Derivative]
Quality = 100
ThumbSize = 240
ImageSize = 480
LargeSize = 960

[Ribbon]
TileSize = 40
TilesPerRow = 9
Concurrency = 8
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
