package integrity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cachedReport holds a report and when it was built.
type cachedReport struct {
	report *Report
	built  time.Time
}

func (c *cachedReport) isExpired(ttl time.Duration) bool {
	if ttl == 0 {
		return true // No caching
	}
	return time.Since(c.built) > ttl
}

// reportCache stores reports keyed by dataset name.
type reportCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	reports map[string]*cachedReport
	sf      singleflight.Group
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{ttl: ttl, reports: make(map[string]*cachedReport)}
}

// getOrBuild returns a fresh cached report, or builds one. Concurrent callers for
// the same key share a single build.
func (c *reportCache) getOrBuild(ctx context.Context, key string, build func(context.Context) (*Report, error)) (*Report, bool, error) {
	// Fast path: check if cache exists and is fresh
	c.mu.RLock()
	entry, exists := c.reports[key]
	c.mu.RUnlock()

	if exists && !entry.isExpired(c.ttl) {
		return entry.report, true, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		c.mu.RLock()
		entry, exists := c.reports[key]
		c.mu.RUnlock()

		if exists && !entry.isExpired(c.ttl) {
			return entry.report, nil
		}

		report, err := build(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.reports[key] = &cachedReport{report: report, built: time.Now()}
		c.mu.Unlock()

		return report, nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.(*Report), false, nil
}

// invalidate drops the cached report for key.
func (c *reportCache) invalidate(key string) {
	c.mu.Lock()
	delete(c.reports, key)
	c.mu.Unlock()
}
