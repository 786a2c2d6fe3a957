package dynamo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-artwork/pkg/domain/repository"
)

// fakeDynamo 只实现仓库会发出的几种表达式
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func itemID(table string, key map[string]types.AttributeValue) string {
	id := table
	for _, name := range []string{"sub", "uref", "uuid"} {
		if v, ok := key[name].(*types.AttributeValueMemberS); ok {
			id += "|" + name + "=" + v.Value
		}
	}
	return id
}

func (f *fakeDynamo) put(t *testing.T, table string, key map[string]types.AttributeValue, v interface{}) {
	item, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemID(table, key)] = item
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemID(aws.ToString(in.TableName), in.Key)]}, nil
}

var (
	removeExpr = regexp.MustCompile(`^REMOVE #images\[(\d+)\]$`)
)

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := itemID(aws.ToString(in.TableName), in.Key)
	item, ok := f.items[id]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}

	images, _ := item["images"].(*types.AttributeValueMemberL)
	if images == nil {
		images = &types.AttributeValueMemberL{}
	}

	expr := aws.ToString(in.UpdateExpression)
	if m := removeExpr.FindStringSubmatch(expr); m != nil {
		idx, _ := strconv.Atoi(m[1])
		want := in.ExpressionAttributeValues[":key"].(*types.AttributeValueMemberS).Value
		if idx >= len(images.Value) {
			return nil, &types.ConditionalCheckFailedException{}
		}
		entry := images.Value[idx].(*types.AttributeValueMemberM)
		got, _ := entry.Value["key"].(*types.AttributeValueMemberS)
		if got == nil || got.Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
		next := append([]types.AttributeValue{}, images.Value[:idx]...)
		next = append(next, images.Value[idx+1:]...)
		item["images"] = &types.AttributeValueMemberL{Value: next}
		return &dynamodb.UpdateItemOutput{}, nil
	}

	if expr == "SET #images = list_append(if_not_exists(#images, :empty), :entry)" {
		add := in.ExpressionAttributeValues[":entry"].(*types.AttributeValueMemberL)
		next := append(append([]types.AttributeValue{}, images.Value...), add.Value...)
		item["images"] = &types.AttributeValueMemberL{Value: next}
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return nil, fmt.Errorf("unsupported expression %q", expr)
}

func TestIdentityRepo(t *testing.T) {
	fake := newFakeDynamo()
	fake.put(t, "openid", map[string]types.AttributeValue{"sub": &types.AttributeValueMemberS{Value: "facebook|1"}},
		model.IdentityRecord{ExternalID: "facebook|1", InternalRef: "uref-1"})
	repo := NewIdentityRepo(fake, "openid")

	rec, found, err := repo.FindByExternalID(context.Background(), "facebook|1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "uref-1", rec.InternalRef)

	rec, found, err = repo.FindByExternalID(context.Background(), "nobody")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, rec)
}

func TestArtworkRepoAppendAndRemove(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	ref := model.ArtworkRef{InternalRef: "uref-1", ArtworkID: "art-1"}
	fake.put(t, "artwork", artworkKey(ref), model.ArtworkRecord{InternalRef: "uref-1", ArtworkID: "art-1"})
	repo := NewArtworkRepo(fake, "artwork")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendImage(ctx, ref, model.ImageEntry{
			DerivedKey: fmt.Sprintf("u/art-1/img%d/p.jpg", i),
			RawKey:     fmt.Sprintf("u/art-1/img%d/p.png", i),
			ImageID:    fmt.Sprintf("img%d", i),
			Filename:   "p.png",
			Metadata:   model.ImageMetadata{Format: "png", Width: 10, Height: 10, ColorSpace: "srgb", SizeBytes: 100},
		}))
	}

	rec, found, err := repo.Get(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, rec.Images, 3)
	require.Equal(t, "u/art-1/img1/p.png", rec.Images[1].RawKey)
	require.Equal(t, "png", rec.Images[1].Metadata.Format)

	// 位置与 key 不一致：条件失败
	err = repo.RemoveImageAt(ctx, ref, 0, "u/art-1/img1/p.jpg")
	require.True(t, errors.Is(err, repository.ErrStaleSnapshot))

	require.NoError(t, repo.RemoveImageAt(ctx, ref, 1, "u/art-1/img1/p.jpg"))
	rec, _, err = repo.Get(ctx, ref)
	require.NoError(t, err)
	require.Len(t, rec.Images, 2)
	require.Equal(t, "img0", rec.Images[0].ImageID)
	require.Equal(t, "img2", rec.Images[1].ImageID)
}

func TestArtworkRepoAppendMissingArtwork(t *testing.T) {
	repo := NewArtworkRepo(newFakeDynamo(), "artwork")
	err := repo.AppendImage(context.Background(), model.ArtworkRef{InternalRef: "x", ArtworkID: "y"}, model.ImageEntry{DerivedKey: "k"})
	require.True(t, errors.Is(err, constant.ErrArtworkNotFound))

	_, found, err := repo.Get(context.Background(), model.ArtworkRef{InternalRef: "x", ArtworkID: "y"})
	require.NoError(t, err)
	require.False(t, found)
}
