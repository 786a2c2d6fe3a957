/*
 * @Description: artwork 表的 images 列表仓库
 * @Author: 安知鱼
 * @Date: 2025-11-02 16:40:05
 * @LastEditTime: 2025-11-04 15:26:44
 * @LastEditors: 安知鱼
 */
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/repository"
)

type artworkRepo struct {
	client API
	table  string
}

// NewArtworkRepo 创建 artwork 表的仓库实现
func NewArtworkRepo(client API, table string) repository.ArtworkRepository {
	return &artworkRepo{client: client, table: table}
}

func artworkKey(ref model.ArtworkRef) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"uref": &types.AttributeValueMemberS{Value: ref.InternalRef},
		"uuid": &types.AttributeValueMemberS{Value: ref.ArtworkID},
	}
}

func (r *artworkRepo) Get(ctx context.Context, ref model.ArtworkRef) (*model.ArtworkRecord, bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.table),
		Key:                      artworkKey(ref),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     aws.String("#uref, #uuid, #images"),
		ExpressionAttributeNames: map[string]string{"#uref": "uref", "#uuid": "uuid", "#images": "images"},
	})
	if err != nil {
		return nil, false, fmt.Errorf("查询 %s 表失败: %w", r.table, err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	var record model.ArtworkRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, false, fmt.Errorf("解析 %s 表记录失败: %w", r.table, err)
	}
	return &record, true, nil
}

// AppendImage 使用 list_append 在存储端完成追加，
// 并发调用各自追加自己的条目，不会相互覆盖。
func (r *artworkRepo) AppendImage(ctx context.Context, ref model.ArtworkRef, entry model.ImageEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("序列化图片条目失败: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 artworkKey(ref),
		UpdateExpression:    aws.String("SET #images = list_append(if_not_exists(#images, :empty), :entry)"),
		ConditionExpression: aws.String("attribute_exists(#uref)"),
		ExpressionAttributeNames: map[string]string{
			"#images": "images",
			"#uref":   "uref",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":entry": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberM{Value: item},
			}},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("%w: uref=%s uuid=%s", constant.ErrArtworkNotFound, ref.InternalRef, ref.ArtworkID)
		}
		return fmt.Errorf("更新 %s 表失败: %w", r.table, err)
	}
	return nil
}

// RemoveImageAt 按位置删除，但以该位置条目的 key 作为写入条件，
// 快照读取后若列表被并发修改，条件失败而不是误删其他条目。
func (r *artworkRepo) RemoveImageAt(ctx context.Context, ref model.ArtworkRef, index int, expectedKey string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 artworkKey(ref),
		UpdateExpression:    aws.String(fmt.Sprintf("REMOVE #images[%d]", index)),
		ConditionExpression: aws.String(fmt.Sprintf("#images[%d].#key = :key", index)),
		ExpressionAttributeNames: map[string]string{
			"#images": "images",
			"#key":    "key",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":key": &types.AttributeValueMemberS{Value: expectedKey},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("%w: uref=%s uuid=%s index=%d", repository.ErrStaleSnapshot, ref.InternalRef, ref.ArtworkID, index)
		}
		return fmt.Errorf("更新 %s 表失败: %w", r.table, err)
	}
	return nil
}
