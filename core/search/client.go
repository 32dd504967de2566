package search

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an index or alias does not exist.
var ErrNotFound = errors.New("not found")

// Document is one record to index. An empty ID lets the cluster assign one.
type Document struct {
	ID   string
	Body map[string]any
}

// BulkStats summarizes a bulk indexing call.
type BulkStats struct {
	Indexed uint64
	Failed  uint64
	// Errors holds a sample of per-document failure reasons.
	Errors []string
}

// IndexSpec is the body used to create an index.
type IndexSpec struct {
	Shards     int
	Replicas   int
	Properties map[string]any
}

// AliasActionType is one of the alias API verbs.
type AliasActionType string

const (
	// AliasAdd binds the alias to an index.
	AliasAdd AliasActionType = "add"
	// AliasRemove unbinds the alias from an index.
	AliasRemove AliasActionType = "remove"
	// AliasRemoveIndex deletes a concrete index within the same atomic call.
	AliasRemoveIndex AliasActionType = "remove_index"
)

// AliasAction is one entry of an atomic alias update.
type AliasAction struct {
	Type  AliasActionType
	Index string
	Alias string
}

// Client is the subset of the search cluster API used by the publisher.
type Client interface {
	// IndexExists reports whether a concrete index with this name exists.
	IndexExists(ctx context.Context, name string) (bool, error)
	// CreateIndex creates an index with the given settings and mapping.
	CreateIndex(ctx context.Context, name string, spec IndexSpec) error
	// DeleteIndex deletes the named indices.
	DeleteIndex(ctx context.Context, names ...string) error
	// BulkIndex indexes documents into an index and reports per-document outcome.
	BulkIndex(ctx context.Context, index string, docs []Document) (BulkStats, error)
	// Refresh makes indexed documents visible to search.
	Refresh(ctx context.Context, index string) error
	// Count returns the document count behind an index or alias.
	Count(ctx context.Context, target string) (int64, error)
	// AliasIndices returns the indices the alias currently resolves to.
	AliasIndices(ctx context.Context, alias string) ([]string, error)
	// UpdateAliases applies all actions atomically.
	UpdateAliases(ctx context.Context, actions []AliasAction) error
	// ListIndices returns the concrete indices matching a wildcard pattern.
	ListIndices(ctx context.Context, pattern string) ([]string, error)
}
