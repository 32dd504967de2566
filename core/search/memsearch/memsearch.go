// Package memsearch provides an in-memory search.Client used by tests and dry runs.
//
// Documents become visible to Count only after Refresh, and UpdateAliases validates
// every action before applying any of them, matching the atomicity of a real cluster.
package memsearch

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"medicamentos-etl/core/search"
)

// Faults configures injected failures. Set before the store is shared between goroutines.
type Faults struct {
	// RejectDocuments makes BulkIndex fail this many documents per call.
	RejectDocuments int
	// UpdateAliases is returned by UpdateAliases when non-nil.
	UpdateAliases error
	// DeleteIndex is returned by DeleteIndex when non-nil.
	DeleteIndex error
	// CreateIndex is returned by CreateIndex when non-nil.
	CreateIndex error
	// Bulk is returned by BulkIndex when non-nil.
	Bulk error
}

type index struct {
	spec    search.IndexSpec
	pending map[string]map[string]any
	visible map[string]map[string]any
	seq     int
}

// Store is a goroutine-safe in-memory cluster.
type Store struct {
	mu      sync.RWMutex
	indices map[string]*index
	aliases map[string]map[string]struct{}

	Faults Faults
}

// New creates an empty store.
func New() *Store {
	return &Store{
		indices: make(map[string]*index),
		aliases: make(map[string]map[string]struct{}),
	}
}

var _ search.Client = (*Store)(nil)

func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[name]
	return ok, nil
}

func (s *Store) CreateIndex(_ context.Context, name string, spec search.IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Faults.CreateIndex != nil {
		return s.Faults.CreateIndex
	}
	if _, ok := s.indices[name]; ok {
		return fmt.Errorf("index %s already exists", name)
	}
	if _, ok := s.aliases[name]; ok {
		return fmt.Errorf("index %s conflicts with an alias", name)
	}
	s.indices[name] = &index{
		spec:    spec,
		pending: make(map[string]map[string]any),
		visible: make(map[string]map[string]any),
	}
	return nil
}

func (s *Store) DeleteIndex(_ context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Faults.DeleteIndex != nil {
		return s.Faults.DeleteIndex
	}
	for _, name := range names {
		if _, ok := s.indices[name]; !ok {
			return fmt.Errorf("delete index %s: %w", name, search.ErrNotFound)
		}
	}
	for _, name := range names {
		s.dropIndexLocked(name)
	}
	return nil
}

func (s *Store) BulkIndex(_ context.Context, name string, docs []search.Document) (search.BulkStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats search.BulkStats
	if s.Faults.Bulk != nil {
		return stats, s.Faults.Bulk
	}
	idx, ok := s.indices[name]
	if !ok {
		return stats, fmt.Errorf("bulk into %s: %w", name, search.ErrNotFound)
	}

	reject := s.Faults.RejectDocuments
	for _, doc := range docs {
		if reject > 0 {
			reject--
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: mapper_parsing_exception", doc.ID))
			continue
		}
		id := doc.ID
		if id == "" {
			idx.seq++
			id = fmt.Sprintf("_auto_%d", idx.seq)
		}
		body := make(map[string]any, len(doc.Body))
		for k, v := range doc.Body {
			body[k] = v
		}
		idx.pending[id] = body
		stats.Indexed++
	}
	return stats, nil
}

func (s *Store) Refresh(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, idx := range s.resolveLocked(name) {
		for id, body := range idx.pending {
			idx.visible[id] = body
		}
		idx.pending = make(map[string]map[string]any)
	}
	return nil
}

func (s *Store) Count(_ context.Context, target string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resolved := s.resolveLocked(target)
	if len(resolved) == 0 {
		return 0, fmt.Errorf("count %s: %w", target, search.ErrNotFound)
	}
	var total int64
	for _, idx := range resolved {
		total += int64(len(idx.visible))
	}
	return total, nil
}

func (s *Store) AliasIndices(_ context.Context, alias string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.aliases[alias]), nil
}

func (s *Store) UpdateAliases(_ context.Context, actions []search.AliasAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Faults.UpdateAliases != nil {
		return s.Faults.UpdateAliases
	}

	removedIndices := make(map[string]struct{})
	for _, a := range actions {
		if _, ok := s.indices[a.Index]; !ok {
			return fmt.Errorf("alias action %s on %s: %w", a.Type, a.Index, search.ErrNotFound)
		}
		switch a.Type {
		case search.AliasRemoveIndex:
			removedIndices[a.Index] = struct{}{}
		case search.AliasRemove:
			if _, ok := s.aliases[a.Alias][a.Index]; !ok {
				return fmt.Errorf("alias %s is not bound to %s: %w", a.Alias, a.Index, search.ErrNotFound)
			}
		case search.AliasAdd:
		default:
			return fmt.Errorf("unknown alias action %q", a.Type)
		}
	}
	for _, a := range actions {
		if a.Type != search.AliasAdd {
			continue
		}
		if _, clash := s.indices[a.Alias]; clash {
			if _, gone := removedIndices[a.Alias]; !gone {
				return fmt.Errorf("invalid alias name [%s], an index exists with the same name", a.Alias)
			}
		}
	}

	for _, a := range actions {
		switch a.Type {
		case search.AliasAdd:
			if s.aliases[a.Alias] == nil {
				s.aliases[a.Alias] = make(map[string]struct{})
			}
			s.aliases[a.Alias][a.Index] = struct{}{}
		case search.AliasRemove:
			delete(s.aliases[a.Alias], a.Index)
			if len(s.aliases[a.Alias]) == 0 {
				delete(s.aliases, a.Alias)
			}
		case search.AliasRemoveIndex:
			s.dropIndexLocked(a.Index)
		}
	}
	return nil
}

func (s *Store) ListIndices(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.indices {
		if ok, _ := path.Match(pattern, name); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// IDs returns the sorted visible document IDs behind an index or alias.
func (s *Store) IDs(target string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, idx := range s.resolveLocked(target) {
		for id := range idx.visible {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Get returns a visible document by ID from an index or alias.
func (s *Store) Get(target, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, idx := range s.resolveLocked(target) {
		if body, ok := idx.visible[id]; ok {
			return body, true
		}
	}
	return nil, false
}

// Mapping returns the properties an index was created with.
func (s *Store) Mapping(name string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil, false
	}
	return idx.spec.Properties, true
}

func (s *Store) resolveLocked(target string) []*index {
	if idx, ok := s.indices[target]; ok {
		return []*index{idx}
	}
	var out []*index
	for _, name := range sortedKeys(s.aliases[target]) {
		out = append(out, s.indices[name])
	}
	return out
}

func (s *Store) dropIndexLocked(name string) {
	delete(s.indices, name)
	for alias, bound := range s.aliases {
		delete(bound, name)
		if len(bound) == 0 {
			delete(s.aliases, alias)
		}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
