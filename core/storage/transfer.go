package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// LatestObject returns the most recently modified object under prefix whose base
// name matches pattern (path.Match syntax). ok is false when nothing matches.
func LatestObject(ctx context.Context, client Client, bucket, prefix, pattern string) (minio.ObjectInfo, bool, error) {
	var (
		latest minio.ObjectInfo
		found  bool
	)
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return minio.ObjectInfo{}, false, fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, obj.Err)
		}
		ok, err := path.Match(pattern, path.Base(obj.Key))
		if err != nil {
			return minio.ObjectInfo{}, false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if !ok {
			continue
		}
		if !found || obj.LastModified.After(latest.LastModified) {
			latest, found = obj, true
		}
	}
	return latest, found, nil
}

// Download copies an object to a local file, creating parent directories.
func Download(ctx context.Context, client Client, bucket, objectName, dest string) error {
	obj, err := client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", objectName, err)
	}
	defer obj.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, obj); err != nil {
		f.Close()
		return fmt.Errorf("failed to download %s: %w", objectName, err)
	}
	return f.Close()
}

// Upload stores a local file under objectName, creating the bucket when missing.
func Upload(ctx context.Context, client Client, bucket, objectName, src, contentType string) (minio.UploadInfo, error) {
	if err := EnsureBucket(ctx, client, bucket); err != nil {
		return minio.UploadInfo{}, err
	}

	f, err := os.Open(src)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return minio.UploadInfo{}, err
	}

	info, err := client.PutObject(ctx, bucket, objectName, f, st.Size(), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return info, nil
}

// Prune keeps the keep most recent objects under prefix and removes the rest.
// It returns the removed keys. keep <= 0 disables pruning.
func Prune(ctx context.Context, client Client, bucket, prefix string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	var objects []minio.ObjectInfo
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		objects = append(objects, obj)
	}
	if len(objects) <= keep {
		return nil, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	var removed []string
	for _, obj := range objects[keep:] {
		if err := client.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", obj.Key, err)
		}
		removed = append(removed, obj.Key)
	}
	return removed, nil
}
