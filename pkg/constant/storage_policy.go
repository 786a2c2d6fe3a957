/*
 * @Description: 存储网关、文档存储的类型与对象命名约定
 * @Author: 安知鱼
 * @Date: 2025-06-23 15:10:56
 * @LastEditTime: 2025-11-03 15:40:12
 * @LastEditors: 安知鱼
 */
package constant

// StorageType 定义了对象存储网关的实现类型
type StorageType string

const (
	StorageTypeS3    StorageType = "aws_s3"
	StorageTypeLocal StorageType = "local"
	// StorageTypeMemory 仅用于试运行，进程退出后对象丢失
	StorageTypeMemory StorageType = "memory"
)

// IndexType 定义了文档存储（身份表与作品表）的实现类型
type IndexType string

const (
	IndexTypeDynamoDB IndexType = "dynamodb"
	IndexTypeMemory   IndexType = "memory"
)

const (
	// DerivedExtension 所有衍生图统一重新编码为 JPEG
	DerivedExtension   = ".jpg"
	DerivedContentType = "image/jpeg"

	// RibbonThumbsDir 与 RibbonObjectName 是展览目录下缩略图子目录与条带图的对象名
	RibbonThumbsDir  = "thumbs/"
	RibbonObjectName = "ribbon.jpg"
)
