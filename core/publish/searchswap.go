package publish

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/search"
)

// SearchTarget is the name of the search swapper.
const SearchTarget = "search"

// SearchSwapper rebuilds an index behind a stable alias and repoints the alias atomically.
type SearchSwapper struct {
	client    search.Client
	log       *zap.Logger
	shards    int
	replicas  int
	batchSize int
	now       func() time.Time
}

// NewSearchSwapper creates a swapper over a search client.
func NewSearchSwapper(client search.Client, cfg search.Config, batchSize int, log *zap.Logger) *SearchSwapper {
	if log == nil {
		log = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	shards := cfg.Shards
	if shards <= 0 {
		shards = 1
	}
	return &SearchSwapper{
		client:    client,
		log:       log,
		shards:    shards,
		replicas:  cfg.Replicas,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (s *SearchSwapper) Name() string {
	return SearchTarget
}

func (s *SearchSwapper) Production(dest Destination) string {
	return strings.ToLower(dest.Alias)
}

// Swap indexes t into a new index and rebinds sess.Production to it in one alias update.
func (s *SearchSwapper) Swap(ctx context.Context, sess *Session, t *dataset.Table) error {
	alias := sess.Production

	index, err := s.newIndexName(ctx, alias)
	if err != nil {
		return newError(KindStagingLoad, SearchTarget, "name index", err)
	}
	sess.SetStaging(index)

	if err := s.client.CreateIndex(ctx, index, search.IndexSpec{
		Shards:     s.shards,
		Replicas:   s.replicas,
		Properties: Mapping(t),
	}); err != nil {
		return newError(KindStagingLoad, SearchTarget, "create index", err)
	}

	if err := s.load(ctx, index, t); err != nil {
		s.deleteQuietly(index, sess)
		return newError(KindStagingLoad, SearchTarget, "bulk index", err)
	}
	sess.Advance(StateLoaded)
	sess.Logger().Info("Index loaded", zap.Int("documents", t.Len()))

	previous, err := s.client.AliasIndices(ctx, alias)
	if err != nil {
		s.deleteQuietly(index, sess)
		return newError(KindSwap, SearchTarget, "resolve alias", err)
	}
	var legacy bool
	if len(previous) == 0 {
		// A bound alias cannot share its name with a concrete index.
		if legacy, err = s.client.IndexExists(ctx, alias); err != nil {
			s.deleteQuietly(index, sess)
			return newError(KindSwap, SearchTarget, "resolve alias", err)
		}
	}

	actions := []search.AliasAction{{Type: search.AliasAdd, Index: index, Alias: alias}}
	for _, old := range previous {
		actions = append(actions, search.AliasAction{Type: search.AliasRemove, Index: old, Alias: alias})
	}
	if legacy {
		// A concrete index occupies the alias name. It is removed in the same atomic call.
		actions = append(actions, search.AliasAction{Type: search.AliasRemoveIndex, Index: alias})
	}
	if err := s.client.UpdateAliases(ctx, actions); err != nil {
		// The cluster may have applied the update before the response was lost.
		bound, berr := s.boundTo(alias, index)
		switch {
		case berr != nil:
			// Unknown binding: keep the index for stale-artifact cleanup.
			sess.Warn(newError(KindCleanup, SearchTarget, "resolve alias after failed update", berr))
			return newError(KindSwap, SearchTarget, "update alias", err)
		case !bound:
			s.deleteQuietly(index, sess)
			return newError(KindSwap, SearchTarget, "update alias", err)
		}
		sess.Warn(newError(KindSwap, SearchTarget, "update alias", fmt.Errorf("applied despite error: %w", err)))
	}
	sess.Advance(StateSwapped)
	sess.Logger().Info("Alias swapped", zap.Strings("previous", previous), zap.Bool("legacy_index", legacy))

	if len(previous) > 0 {
		if err := s.client.DeleteIndex(ctx, previous...); err != nil {
			sess.Warn(newError(KindCleanup, SearchTarget, "delete previous index", err))
			return nil
		}
		sess.Retired = append(sess.Retired, previous...)
	}
	if legacy {
		sess.Retired = append(sess.Retired, alias)
	}
	sess.Advance(StateRetired)
	return nil
}

// newIndexName returns a timestamped name not yet taken.
func (s *SearchSwapper) newIndexName(ctx context.Context, alias string) (string, error) {
	now := s.now()
	for range 10 {
		name := IndexName(alias, now)
		exists, err := s.client.IndexExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		now = now.Add(time.Millisecond)
	}
	return "", fmt.Errorf("no free index name for %s", alias)
}

// load bulk-indexes every row and verifies the visible document count.
func (s *SearchSwapper) load(ctx context.Context, index string, t *dataset.Table) error {
	for start := 0; start < t.Len(); start += s.batchSize {
		end := min(start+s.batchSize, t.Len())
		docs := make([]search.Document, 0, end-start)
		for _, row := range t.Rows[start:end] {
			docs = append(docs, search.Document{ID: t.DocumentID(row), Body: t.Document(row)})
		}

		stats, err := s.client.BulkIndex(ctx, index, docs)
		if err != nil {
			return err
		}
		if stats.Failed > 0 {
			return fmt.Errorf("%d of %d documents failed: %s", stats.Failed, len(docs), strings.Join(stats.Errors, "; "))
		}
	}

	if err := s.client.Refresh(ctx, index); err != nil {
		return err
	}
	count, err := s.client.Count(ctx, index)
	if err != nil {
		return err
	}
	if count != int64(t.Len()) {
		return fmt.Errorf("index %s holds %d documents, want %d (duplicate keys?)", index, count, t.Len())
	}
	return nil
}

// StaleArtifacts lists indices of the alias family, not bound to it, created before cutoff.
func (s *SearchSwapper) StaleArtifacts(ctx context.Context, alias string, cutoff time.Time) ([]string, error) {
	names, err := s.client.ListIndices(ctx, strings.ToLower(alias)+"-*")
	if err != nil {
		return nil, err
	}
	bound, err := s.client.AliasIndices(ctx, alias)
	if err != nil {
		return nil, err
	}
	live := make(map[string]struct{}, len(bound))
	for _, b := range bound {
		live[b] = struct{}{}
	}

	var stale []string
	for _, name := range names {
		if _, ok := live[name]; ok {
			continue
		}
		created, ok := ParseIndexName(alias, name)
		if ok && created.Before(cutoff) {
			stale = append(stale, name)
		}
	}
	return stale, nil
}

// DropArtifacts deletes the named indices.
func (s *SearchSwapper) DropArtifacts(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return s.client.DeleteIndex(ctx, names...)
}

// boundTo reports whether alias resolves to index. It uses its own context
// because the swap context may be the one that expired.
func (s *SearchSwapper) boundTo(alias, index string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	bound, err := s.client.AliasIndices(ctx, alias)
	if err != nil {
		return false, err
	}
	return slices.Contains(bound, index), nil
}

func (s *SearchSwapper) deleteQuietly(index string, sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.client.DeleteIndex(ctx, index); err != nil && !errors.Is(err, search.ErrNotFound) {
		sess.Warn(newError(KindCleanup, SearchTarget, "delete new index", err))
	}
}

// Mapping returns the index properties for a table: key columns as keyword,
// text columns as text with a keyword subfield, numeric columns as double.
func Mapping(t *dataset.Table) map[string]any {
	keys := make(map[string]struct{}, len(t.Key))
	for _, k := range t.Key {
		keys[k] = struct{}{}
	}
	props := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		switch {
		case c.Type == dataset.Numeric:
			props[c.Name] = map[string]any{"type": "double"}
		case hasKey(keys, c.Name):
			props[c.Name] = map[string]any{"type": "keyword"}
		default:
			props[c.Name] = map[string]any{
				"type": "text",
				"fields": map[string]any{
					"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
				},
			}
		}
	}
	return props
}

func hasKey(keys map[string]struct{}, name string) bool {
	_, ok := keys[name]
	return ok
}
