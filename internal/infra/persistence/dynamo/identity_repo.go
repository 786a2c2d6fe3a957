/*
 * @Description: openid 表的只读仓库
 * @Author: 安知鱼
 * @Date: 2025-11-02 16:22:40
 * @LastEditTime: 2025-11-04 10:47:09
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

	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/repository"
)

type identityRepo struct {
	client API
	table  string
}

// NewIdentityRepo 创建 openid 表的仓库实现
func NewIdentityRepo(client API, table string) repository.IdentityRepository {
	return &identityRepo{client: client, table: table}
}

func (r *identityRepo) FindByExternalID(ctx context.Context, externalID string) (*model.IdentityRecord, bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"sub": &types.AttributeValueMemberS{Value: externalID},
		},
		ProjectionExpression:     aws.String("#sub, #uref"),
		ExpressionAttributeNames: map[string]string{"#sub": "sub", "#uref": "uref"},
	})
	if err != nil {
		return nil, false, fmt.Errorf("查询 %s 表失败: %w", r.table, err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	var record model.IdentityRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, false, fmt.Errorf("解析 %s 表记录失败: %w", r.table, err)
	}
	return &record, true, nil
}
