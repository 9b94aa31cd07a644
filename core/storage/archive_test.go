package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"roster-verifier/core/storage"
	"roster-verifier/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "rosters/3/a大学/job-1.json", storage.ObjectKey(3, "Ａ大学", "job-1"))
	assert.Equal(t, "rosters/3/a b/job-1.json", storage.ObjectKey(3, "a/b", "job-1"))
}

func TestArchive_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "rosters").Return(true, nil)

		require.NoError(t, storage.NewArchive(client, "rosters").EnsureBucket(ctx))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "rosters").Return(false, nil)
		client.On("MakeBucket", ctx, "rosters", minio.MakeBucketOptions{}).Return(nil)

		require.NoError(t, storage.NewArchive(client, "rosters").EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "rosters").Return(false, errors.New("dial tcp"))

		assert.Error(t, storage.NewArchive(client, "rosters").EnsureBucket(ctx))
	})
}

func TestArchive_PutGet(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	var uploaded string
	client.On("PutObject", ctx, "rosters", "rosters/1/a大学/job-9.json", mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Run(func(args mock.Arguments) {
			data, _ := io.ReadAll(args.Get(3).(io.Reader))
			uploaded = string(data)
		}).
		Return(minio.UploadInfo{}, nil)

	archive := storage.NewArchive(client, "rosters")
	key, err := archive.Put(ctx, 1, "A大学", "job-9", []map[string]string{{"name": "山田 太郎"}})
	require.NoError(t, err)
	assert.Equal(t, "rosters/1/a大学/job-9.json", key)
	assert.JSONEq(t, `[{"name":"山田 太郎"}]`, uploaded)

	client.On("GetObject", ctx, "rosters", key, minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(uploaded)), nil)

	var out []map[string]string
	require.NoError(t, archive.Get(ctx, key, &out))
	assert.Equal(t, "山田 太郎", out[0]["name"])
}

func TestArchive_List(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "rosters/1/a大学/b.json"}
	ch <- minio.ObjectInfo{Key: "rosters/1/a大学/a.json"}
	close(ch)
	client.On("ListObjects", ctx, "rosters", minio.ListObjectsOptions{Prefix: "rosters/1/a大学/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	keys, err := storage.NewArchive(client, "rosters").List(ctx, 1, "A大学")
	require.NoError(t, err)
	assert.Equal(t, []string{"rosters/1/a大学/a.json", "rosters/1/a大学/b.json"}, keys)

	client.On("RemoveObject", ctx, "rosters", keys[0], minio.RemoveObjectOptions{}).Return(nil)
	assert.NoError(t, storage.NewArchive(client, "rosters").Remove(ctx, keys[0]))
}
