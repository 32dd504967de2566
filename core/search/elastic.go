package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

const maxErrorSamples = 10

type elasticClient struct {
	es      *elasticsearch.Client
	workers int
}

// NewClient creates an Elasticsearch-backed Client.
func NewClient(cfg Config) (Client, error) {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ResponseHeaderTimeout: timeoutDuration,
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	workers := cfg.BulkWorkers
	if workers <= 0 {
		workers = 1
	}
	return &elasticClient{es: es, workers: workers}, nil
}

func (c *elasticClient) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return c.isConcrete(ctx, name)
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError("check index "+name, res)
	}
}

// isConcrete tells an index from an alias of the same name. Both answer HEAD
// with 200, but GET /<name>/_alias is keyed by the concrete indices behind it.
func (c *elasticClient) isConcrete(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.GetAlias(
		c.es.Indices.GetAlias.WithIndex(name),
		c.es.Indices.GetAlias.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, responseError("check index "+name, res)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode alias response: %w", err)
	}
	_, ok := body[name]
	return ok, nil
}

func (c *elasticClient) CreateIndex(ctx context.Context, name string, spec IndexSpec) error {
	body := map[string]any{
		"settings": map[string]any{
			"number_of_shards":   spec.Shards,
			"number_of_replicas": spec.Replicas,
		},
		"mappings": map[string]any{
			"dynamic":    false,
			"properties": spec.Properties,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := c.es.Indices.Create(name,
		c.es.Indices.Create.WithBody(bytes.NewReader(payload)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index "+name, res)
	}
	return nil
}

func (c *elasticClient) DeleteIndex(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	res, err := c.es.Indices.Delete(names, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete indices %v: %w", names, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("delete indices %v: %w", names, ErrNotFound)
	}
	if res.IsError() {
		return responseError("delete indices", res)
	}
	return nil
}

func (c *elasticClient) BulkIndex(ctx context.Context, index string, docs []Document) (BulkStats, error) {
	var (
		mu    sync.Mutex
		stats BulkStats
	)

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     c.es,
		Index:      index,
		NumWorkers: c.workers,
		FlushBytes: 5 << 20,
	})
	if err != nil {
		return stats, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	onFailure := func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
		mu.Lock()
		defer mu.Unlock()
		if len(stats.Errors) >= maxErrorSamples {
			return
		}
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", item.DocumentID, err))
			return
		}
		stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %s: %s", item.DocumentID, res.Error.Type, res.Error.Reason))
	}

	for _, doc := range docs {
		payload, err := json.Marshal(doc.Body)
		if err != nil {
			_ = bi.Close(ctx)
			return stats, fmt.Errorf("failed to encode document %q: %w", doc.ID, err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(payload),
			OnFailure:  onFailure,
		})
		if err != nil {
			_ = bi.Close(ctx)
			return stats, fmt.Errorf("failed to queue document %q: %w", doc.ID, err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return stats, fmt.Errorf("failed to flush bulk indexer: %w", err)
	}

	s := bi.Stats()
	stats.Indexed = s.NumIndexed + s.NumCreated + s.NumUpdated
	stats.Failed = s.NumFailed
	return stats, nil
}

func (c *elasticClient) Refresh(ctx context.Context, index string) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithIndex(index),
		c.es.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to refresh %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("refresh "+index, res)
	}
	return nil
}

func (c *elasticClient) Count(ctx context.Context, target string) (int64, error) {
	res, err := c.es.Count(
		c.es.Count.WithIndex(target),
		c.es.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", target, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("count %s: %w", target, ErrNotFound)
	}
	if res.IsError() {
		return 0, responseError("count "+target, res)
	}

	var body struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return body.Count, nil
}

func (c *elasticClient) AliasIndices(ctx context.Context, alias string) ([]string, error) {
	res, err := c.es.Indices.GetAlias(
		c.es.Indices.GetAlias.WithName(alias),
		c.es.Indices.GetAlias.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alias %s: %w", alias, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, responseError("resolve alias "+alias, res)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode alias response: %w", err)
	}
	indices := make([]string, 0, len(body))
	for name := range body {
		indices = append(indices, name)
	}
	sort.Strings(indices)
	return indices, nil
}

func (c *elasticClient) UpdateAliases(ctx context.Context, actions []AliasAction) error {
	body := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		entry := map[string]any{"index": a.Index}
		if a.Type != AliasRemoveIndex {
			entry["alias"] = a.Alias
		}
		body = append(body, map[string]any{string(a.Type): entry})
	}
	payload, err := json.Marshal(map[string]any{"actions": body})
	if err != nil {
		return err
	}

	res, err := c.es.Indices.UpdateAliases(bytes.NewReader(payload), c.es.Indices.UpdateAliases.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to update aliases: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("update aliases", res)
	}
	return nil
}

func (c *elasticClient) ListIndices(ctx context.Context, pattern string) ([]string, error) {
	res, err := c.es.Cat.Indices(
		c.es.Cat.Indices.WithIndex(pattern),
		c.es.Cat.Indices.WithFormat("json"),
		c.es.Cat.Indices.WithH("index"),
		c.es.Cat.Indices.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices %s: %w", pattern, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, responseError("list indices "+pattern, res)
	}

	var rows []struct {
		Index string `json:"index"`
	}
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode index list: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Index)
	}
	sort.Strings(names)
	return names, nil
}

func responseError(op string, res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
}
