package blob_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/blob"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()

	t.Run("Should report missing objects", func(t *testing.T) {
		_, err := store.Head(ctx, "nope")
		assert.ErrorIs(t, err, blob.ErrNotFound)

		_, err = store.Get(ctx, "nope")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("Should round trip bytes and metadata", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "ABC-1/new.jpg", []byte("jpeg"), blob.PutOptions{ContentType: "image/jpeg"}))

		meta, err := store.Head(ctx, "ABC-1/new.jpg")
		require.NoError(t, err)
		assert.Equal(t, int64(4), meta.Size)
		assert.Equal(t, "image/jpeg", meta.ContentType)

		obj, err := store.Get(ctx, "ABC-1/new.jpg")
		require.NoError(t, err)
		defer obj.Body.Close()
		data, err := io.ReadAll(obj.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg"), data)
		assert.Equal(t, 1, store.Puts())
	})

	t.Run("Should delete objects", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "ABC-1/new.jpg"))

		_, err := store.Head(ctx, "ABC-1/new.jpg")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func notFound() error {
	return awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), 404, "req-1")
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, notFound()
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(f.types[aws.StringValue(in.Key)]),
	}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(f.types[aws.StringValue(in.Key)]),
	}, nil
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Key)] = data
	f.types[aws.StringValue(in.Key)] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := blob.NewS3StoreWithClient(client, "catalog", "/images/")

	t.Run("Should map 404 to ErrNotFound", func(t *testing.T) {
		_, err := store.Head(ctx, "ABC-1/a.jpg")
		assert.ErrorIs(t, err, blob.ErrNotFound)

		_, err = store.Get(ctx, "ABC-1/a.jpg")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("Should write under the prefix", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "ABC-1/a.jpg", []byte("png"), blob.PutOptions{ContentType: "image/png"}))

		assert.Contains(t, client.objects, "images/ABC-1/a.jpg")

		meta, err := store.Head(ctx, "ABC-1/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, "ABC-1/a.jpg", meta.Key)
		assert.Equal(t, int64(3), meta.Size)
		assert.Equal(t, "image/png", meta.ContentType)
	})

	t.Run("Should delete under the prefix", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "ABC-1/a.jpg"))
		assert.NotContains(t, client.objects, "images/ABC-1/a.jpg")
	})
}

func TestNew(t *testing.T) {
	store, err := blob.New(config.Blob{Driver: config.BlobDriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &blob.MemoryStore{}, store)

	_, err = blob.New(config.Blob{Driver: config.BlobDriverS3})
	assert.Error(t, err)
}
