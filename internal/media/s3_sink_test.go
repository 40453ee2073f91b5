package media

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elskow/portfolio/internal/config"
)

type fakeObjectStore struct {
	objects map[string][]byte
	mimes   map[string]string
	putErr  error
	headErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: make(map[string][]byte),
		mimes:   make(map[string]string),
	}
}

func (f *fakeObjectStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.mimes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectStore) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjectStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Sink_Write(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		subpath string
		wantKey string
	}{
		{name: "no prefix", subpath: "uploads/a.png", wantKey: "media/uploads/a.png"},
		{name: "prefix", prefix: "/blog/", subpath: "uploads/a.png", wantKey: "media/blog/uploads/a.png"},
		{name: "dot segments cannot climb", prefix: "blog", subpath: "../../a.png", wantKey: "media/blog/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeObjectStore()
			sink := newS3Sink(store, "media", tt.prefix, newTestLogger(t))

			_, err := sink.Write(context.Background(), tt.subpath, []byte("pixels"), "image/webp")
			require.NoError(t, err)

			assert.Equal(t, []byte("pixels"), store.objects[tt.wantKey])
			assert.Equal(t, "image/webp", store.mimes[tt.wantKey])
		})
	}
}

func TestS3Sink_WriteError(t *testing.T) {
	store := newFakeObjectStore()
	store.putErr = errors.New("access denied")
	sink := newS3Sink(store, "media", "", newTestLogger(t))

	_, err := sink.Write(context.Background(), "uploads/a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, store.putErr)
}

func TestS3Sink_Delete(t *testing.T) {
	store := newFakeObjectStore()
	sink := newS3Sink(store, "media", "blog", newTestLogger(t))
	ctx := context.Background()

	stored, err := sink.Write(ctx, "uploads/a.png", []byte("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/a.png", stored)

	require.NoError(t, sink.Delete(ctx, stored))
	assert.Empty(t, store.objects)

	assert.ErrorIs(t, sink.Delete(ctx, stored), ErrObjectNotFound)

	store.headErr = errors.New("timeout")
	assert.ErrorIs(t, sink.Delete(ctx, stored), store.headErr)
}

func TestNewSink(t *testing.T) {
	logger := newTestLogger(t)

	t.Run("static", func(t *testing.T) {
		sink, err := NewSink(context.Background(), &config.MediaConfig{Platform: "static", StaticPath: t.TempDir()}, logger)
		require.NoError(t, err)
		assert.IsType(t, &StaticSink{}, sink)
	})

	t.Run("s3", func(t *testing.T) {
		sink, err := NewSink(context.Background(), &config.MediaConfig{
			Platform: "s3",
			S3: config.S3Config{
				Bucket:          "media",
				Region:          "us-east-1",
				Endpoint:        "http://localhost:9000",
				AccessKeyID:     "minio",
				SecretAccessKey: "minio123",
			},
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &S3Sink{}, sink)
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		_, err := NewSink(context.Background(), &config.MediaConfig{Platform: "s3"}, logger)
		assert.Error(t, err)
	})

	t.Run("unknown platform", func(t *testing.T) {
		_, err := NewSink(context.Background(), &config.MediaConfig{Platform: "ftp"}, logger)
		assert.Error(t, err)
	})
}
