// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. The pipeline uses it for two things: fetching the
// raw source files from the bucket's raw/ prefix when bucket inputs are enabled, and
// archiving each canonical dataset under datasets/<name>/ after a transform.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Helpers
//
//   - LatestObject: newest object under a prefix whose base name matches a pattern.
//   - Download: copy an object to a local path.
//   - Upload: store a local file, creating the bucket when needed (EnsureBucket).
//   - Prune: keep the newest N objects under a prefix, removing older archives.
package storage
