package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medicamentos-etl/core/storage"
	"medicamentos-etl/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLatestObject(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "bucket", mock.Anything).Return(mocks.Objects(
		minio.ObjectInfo{Key: "raw/cmed_2024_03.csv", LastModified: base},
		minio.ObjectInfo{Key: "raw/cmed_2024_05.csv", LastModified: base.Add(48 * time.Hour)},
		minio.ObjectInfo{Key: "raw/anvisa.csv", LastModified: base.Add(72 * time.Hour)},
	))

	obj, ok, err := storage.LatestObject(context.Background(), client, "bucket", "raw/", "cmed*.csv")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "raw/cmed_2024_05.csv", obj.Key)
}

func TestLatestObject_NoMatch(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "bucket", mock.Anything).Return(mocks.Objects(
		minio.ObjectInfo{Key: "raw/anvisa.csv"},
	))

	_, ok, err := storage.LatestObject(context.Background(), client, "bucket", "raw/", "cmed*.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDownload(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "bucket", "raw/anvisa.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("A;B\n1;2\n")), nil)

	dest := filepath.Join(t.TempDir(), "dados", "anvisa.csv")
	require.NoError(t, storage.Download(context.Background(), client, "bucket", "raw/anvisa.csv", dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "A;B\n1;2\n", string(content))
}

func TestUpload_CreatesBucket(t *testing.T) {
	src := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(src, []byte("a\n"), 0o644))

	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "bucket").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "bucket", mock.Anything).Return(nil)
	client.On("PutObject", mock.Anything, "bucket", "datasets/x.csv", mock.Anything, int64(2), mock.Anything).
		Return(minio.UploadInfo{Key: "datasets/x.csv", Size: 2}, nil)

	info, err := storage.Upload(context.Background(), client, "bucket", "datasets/x.csv", src, "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "datasets/x.csv", info.Key)
	client.AssertExpectations(t)
}

func TestPrune(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "bucket", mock.Anything).Return(mocks.Objects(
		minio.ObjectInfo{Key: "datasets/medicamentos/", LastModified: base},
		minio.ObjectInfo{Key: "datasets/medicamentos/1.csv", LastModified: base},
		minio.ObjectInfo{Key: "datasets/medicamentos/3.csv", LastModified: base.Add(2 * time.Hour)},
		minio.ObjectInfo{Key: "datasets/medicamentos/2.csv", LastModified: base.Add(time.Hour)},
	))
	client.On("RemoveObject", mock.Anything, "bucket", "datasets/medicamentos/1.csv", mock.Anything).Return(nil)

	removed, err := storage.Prune(context.Background(), client, "bucket", "datasets/medicamentos/", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"datasets/medicamentos/1.csv"}, removed)
	client.AssertExpectations(t)
}

func TestPrune_Disabled(t *testing.T) {
	client := new(mocks.Client)
	removed, err := storage.Prune(context.Background(), client, "bucket", "datasets/", 0)
	require.NoError(t, err)
	assert.Empty(t, removed)
	client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}
