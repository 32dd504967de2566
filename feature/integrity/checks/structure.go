package checks

import (
	"bytes"
	"context"
	"fmt"

	"medicamentos-etl/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// RequiredPrefixes lists the folders the pipeline reads from and archives to.
var RequiredPrefixes = []string{"raw", "datasets"}

// StructureReport describes the bucket layout.
type StructureReport struct {
	Bucket       string   `json:"bucket"`
	BucketExists bool     `json:"bucket_exists"`
	Missing      []string `json:"missing"`
	Fixed        []string `json:"fixed,omitempty"`
}

// OK reports whether the bucket and every required prefix exist.
func (r *StructureReport) OK() bool {
	return r.BucketExists && len(r.Missing) == 0
}

// CheckStructure lists the required prefixes that hold no object. A missing bucket
// reports every prefix as missing. A listing error on a prefix counts as missing.
func CheckStructure(ctx context.Context, client storage.Client, bucket string) (*StructureReport, error) {
	report := &StructureReport{Bucket: bucket, Missing: []string{}}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	report.BucketExists = exists
	if !exists {
		report.Missing = append(report.Missing, RequiredPrefixes...)
		return report, nil
	}

	for _, prefix := range RequiredPrefixes {
		if !hasObjects(ctx, client, bucket, prefix+"/") {
			report.Missing = append(report.Missing, prefix)
		}
	}
	return report, nil
}

func hasObjects(ctx context.Context, client storage.Client, bucket, prefix string) bool {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, MaxKeys: 1}) {
		return obj.Err == nil
	}
	return false
}

// FixStructure creates the bucket when needed and an empty marker object for each
// missing prefix. Fixed prefixes move from Missing to Fixed.
func FixStructure(ctx context.Context, client storage.Client, logger *zap.Logger, report *StructureReport) error {
	if !report.BucketExists {
		if err := storage.EnsureBucket(ctx, client, report.Bucket); err != nil {
			return err
		}
		report.BucketExists = true
		logger.Info("Created bucket", zap.String("bucket", report.Bucket))
	}

	for len(report.Missing) > 0 {
		prefix := report.Missing[0]
		if _, err := client.PutObject(ctx, report.Bucket, prefix+"/", bytes.NewReader(nil), 0, minio.PutObjectOptions{}); err != nil {
			return fmt.Errorf("failed to create prefix %s: %w", prefix, err)
		}
		logger.Info("Created missing prefix", zap.String("bucket", report.Bucket), zap.String("prefix", prefix))
		report.Missing = report.Missing[1:]
		report.Fixed = append(report.Fixed, prefix)
	}
	return nil
}
