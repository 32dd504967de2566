// Package search wraps the search cluster behind a narrow Client interface.
//
// The publisher only needs index lifecycle, bulk loading, counting and atomic alias
// updates, so that is all Client exposes. NewClient returns the Elasticsearch
// implementation; memsearch provides an in-memory one for tests.
package search
