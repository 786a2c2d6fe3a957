/*
 * @Description: AWS S3对象存储网关实现（使用aws-sdk-go-v2）
 * @Author: 安知鱼
 * @Date: 2025-09-28 19:00:00
 * @LastEditTime: 2025-11-04 14:10:52
 * @LastEditors: 安知鱼
 *
 * 客户端在进程启动时创建一次，通过构造函数注入到各个组件。
 * key 参数均为存储桶内的完整对象键，不做任何路径转换。
 */
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API 是 AWSS3Provider 用到的 s3.Client 方法子集，便于测试替换
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// AWSConfigOptions 描述了创建 AWS 配置所需的信息
type AWSConfigOptions struct {
	Region    string
	AccessKey string
	SecretKey string
}

// LoadAWSConfig 创建 S3 与 DynamoDB 共用的 AWS 配置。
// 未提供静态凭证时使用默认凭证链（环境变量、实例角色等）。
func LoadAWSConfig(ctx context.Context, opts AWSConfigOptions) (aws.Config, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1" // 默认区域
	}

	var loadOpts []func(*config.LoadOptions) error
	loadOpts = append(loadOpts, config.WithRegion(region))

	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Printf("[AWS] 创建配置失败: %v", err)
		return aws.Config{}, fmt.Errorf("创建AWS配置失败: %w", err)
	}
	log.Printf("[AWS] 配置加载完成 - 区域: %s", region)
	return cfg, nil
}

// NewS3Client 基于共享配置创建S3客户端，自定义 endpoint（如 MinIO）时启用 path-style
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// AWSS3Provider 实现了 ObjectStorage 接口，用于处理与AWS S3的所有交互。
type AWSS3Provider struct {
	client S3API
}

// NewAWSS3Provider 是 AWSS3Provider 的构造函数。
func NewAWSS3Provider(client S3API) *AWSS3Provider {
	return &AWSS3Provider{client: client}
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFoundErr *types.NotFound
	return errors.As(err, &notFoundErr)
}

// Get 从S3下载整个对象
func (p *AWSS3Provider) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	output, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, notFound(bucket, key)
		}
		return nil, fmt.Errorf("从AWS S3获取对象 %s/%s 失败: %w", bucket, key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("读取AWS S3对象 %s/%s 失败: %w", bucket, key, err)
	}
	return data, nil
}

// Put 上传整个对象
func (p *AWSS3Provider) Put(ctx context.Context, bucket, key string, data []byte, contentType string, opts ...PutOption) error {
	options := applyPutOptions(opts)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}
	if options.PublicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		log.Printf("[AWS S3] 上传失败 - %s/%s: %v", bucket, key, err)
		return fmt.Errorf("上传到AWS S3失败: %w", err)
	}
	log.Printf("[AWS S3] 上传成功 - %s/%s (%d 字节)", bucket, key, len(data))
	return nil
}

// Delete 删除对象。S3 的 DeleteObject 对不存在的键也会返回成功，
// 因此先用 HeadObject 判断存在性，以便调用方执行旧键回退。
func (p *AWSS3Provider) Delete(ctx context.Context, bucket, key string) error {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return notFound(bucket, key)
		}
		return fmt.Errorf("检查AWS S3对象 %s/%s 失败: %w", bucket, key, err)
	}

	if _, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("从AWS S3删除对象 %s/%s 失败: %w", bucket, key, err)
	}
	log.Printf("[AWS S3] 删除成功 - %s/%s", bucket, key)
	return nil
}

// List 列出前缀下的全部对象（自动翻页），跳过目录占位对象
func (p *AWSS3Provider) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var objects []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("列出AWS S3对象 %s/%s 失败: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue
			}
			objects = append(objects, ObjectInfo{
				Key:  *obj.Key,
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	log.Printf("[AWS S3] List完成 - %s/%s 返回 %d 个对象", bucket, prefix, len(objects))
	return objects, nil
}
