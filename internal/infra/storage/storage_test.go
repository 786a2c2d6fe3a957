package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-artwork/pkg/constant"
)

func TestLocalProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(t.TempDir())

	require.NoError(t, p.Put(ctx, "thumbs", "u/a/i/b.jpg", []byte("b"), "image/jpeg"))
	require.NoError(t, p.Put(ctx, "thumbs", "u/a/i/a.jpg", []byte("a"), "image/jpeg"))
	require.NoError(t, p.Put(ctx, "thumbs", "other/x.jpg", []byte("x"), "image/jpeg"))

	data, err := p.Get(ctx, "thumbs", "u/a/i/a.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("a"), data)

	objects, err := p.List(ctx, "thumbs", "u/")
	require.NoError(t, err)
	require.Equal(t, []ObjectInfo{{Key: "u/a/i/a.jpg", Size: 1}, {Key: "u/a/i/b.jpg", Size: 1}}, objects)

	require.NoError(t, p.Delete(ctx, "thumbs", "u/a/i/a.jpg"))
	err = p.Delete(ctx, "thumbs", "u/a/i/a.jpg")
	require.True(t, errors.Is(err, constant.ErrObjectNotFound))

	_, err = p.Get(ctx, "thumbs", "u/a/i/a.jpg")
	require.True(t, errors.Is(err, constant.ErrObjectNotFound))
}

func TestLocalProviderListMissingBucket(t *testing.T) {
	p := NewLocalProvider(t.TempDir())
	objects, err := p.List(context.Background(), "nope", "")
	require.NoError(t, err)
	require.Empty(t, objects)
}

func TestLocalProviderRejectsEscapingKey(t *testing.T) {
	p := NewLocalProvider(t.TempDir())
	err := p.Put(context.Background(), "b", "../../etc/passwd", []byte("x"), "text/plain")
	require.Error(t, err)
}

// fakeS3 是 S3API 的内存实现
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	acls     map[string]types.ObjectCannedACL
	pageSize int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, acls: map[string]types.ObjectCannedACL{}, pageSize: 2}
}

func fakeKey(bucket, key *string) string { return aws.ToString(bucket) + "/" + aws.ToString(key) }

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[fakeKey(in.Bucket, in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[fakeKey(in.Bucket, in.Key)] = data
	f.acls[fakeKey(in.Bucket, in.Key)] = in.ACL
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[fakeKey(in.Bucket, in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, fakeKey(in.Bucket, in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bucketPrefix := aws.ToString(in.Bucket) + "/"
	var keys []string
	for k := range f.objects {
		if !strings.HasPrefix(k, bucketPrefix) {
			continue
		}
		key := strings.TrimPrefix(k, bucketPrefix)
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) && key > aws.ToString(in.ContinuationToken) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	if len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(f.objects[bucketPrefix+k])))})
	}
	return out, nil
}

func TestAWSS3Provider(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	p := NewAWSS3Provider(fake)

	require.NoError(t, p.Put(ctx, "pages", "ex/thumbs/1.jpg", []byte("1"), "image/jpeg"))
	require.NoError(t, p.Put(ctx, "pages", "ex/thumbs/2.jpg", []byte("22"), "image/jpeg"))
	require.NoError(t, p.Put(ctx, "pages", "ex/thumbs/3.jpg", []byte("333"), "image/jpeg"))
	require.NoError(t, p.Put(ctx, "pages", "ex/thumbs/", nil, "application/x-directory"))
	require.NoError(t, p.Put(ctx, "pages", "ex/ribbon.jpg", []byte("r"), "image/jpeg", WithPublicRead()))
	require.Equal(t, types.ObjectCannedACLPublicRead, fake.acls["pages/ex/ribbon.jpg"])

	// 三个对象跨两页，目录占位对象被跳过
	objects, err := p.List(ctx, "pages", "ex/thumbs/")
	require.NoError(t, err)
	require.Equal(t, []ObjectInfo{
		{Key: "ex/thumbs/1.jpg", Size: 1},
		{Key: "ex/thumbs/2.jpg", Size: 2},
		{Key: "ex/thumbs/3.jpg", Size: 3},
	}, objects)

	data, err := p.Get(ctx, "pages", "ex/thumbs/2.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("22"), data)

	_, err = p.Get(ctx, "pages", "missing")
	require.True(t, errors.Is(err, constant.ErrObjectNotFound))

	require.NoError(t, p.Delete(ctx, "pages", "ex/thumbs/1.jpg"))
	err = p.Delete(ctx, "pages", "ex/thumbs/1.jpg")
	require.True(t, errors.Is(err, constant.ErrObjectNotFound))
}

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	require.NoError(t, p.Put(ctx, "pages", "ex/thumbs/b.jpg", []byte("b"), "image/jpeg"))
	require.NoError(t, p.Put(ctx, "pages", "ex/thumbs/a.jpg", []byte("a"), "image/jpeg"))
	require.NoError(t, p.Put(ctx, "pages", "ex/thumbs/", nil, ""))
	require.NoError(t, p.Put(ctx, "pages", "ex/ribbon.jpg", []byte("r"), "image/jpeg", WithPublicRead()))

	objects, err := p.List(ctx, "pages", "ex/thumbs/")
	require.NoError(t, err)
	require.Equal(t, []ObjectInfo{{Key: "ex/thumbs/a.jpg", Size: 1}, {Key: "ex/thumbs/b.jpg", Size: 1}}, objects)

	obj, ok := p.Object("pages", "ex/ribbon.jpg")
	require.True(t, ok)
	require.True(t, obj.PublicRead)
	require.Equal(t, "image/jpeg", obj.ContentType)

	_, err = p.Get(ctx, "pages", "missing")
	require.ErrorIs(t, err, constant.ErrObjectNotFound)
	require.NoError(t, p.Delete(ctx, "pages", "ex/ribbon.jpg"))
	require.ErrorIs(t, p.Delete(ctx, "pages", "ex/ribbon.jpg"), constant.ErrObjectNotFound)
	require.Equal(t, 3, p.Len("pages"))
}
