package integrity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medicamentos-etl/core/publish"
	"medicamentos-etl/core/search"
	"medicamentos-etl/core/storage"
	"medicamentos-etl/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArtifactLister lists unbound staging artifacts of a target. publish.Swapper satisfies it.
type ArtifactLister interface {
	Name() string
	Production(dest publish.Destination) string
	StaleArtifacts(ctx context.Context, production string, cutoff time.Time) ([]string, error)
}

// SessionSource exposes recent publish sessions. *publish.Coordinator satisfies it.
type SessionSource interface {
	Sessions() []publish.Session
}

// Report is the consistency state of one published dataset.
type Report struct {
	Name  string              `json:"name"`
	Table *checks.TableReport `json:"table,omitempty"`
	Alias *checks.AliasReport `json:"alias,omitempty"`
	// Orphans lists staging artifacts per target that no production name points at.
	// A publish in flight shows up here too.
	Orphans    map[string][]string `json:"orphans"`
	Consistent bool                `json:"consistent"`
	Problems   []string            `json:"problems"`
	CheckedAt  time.Time           `json:"checked_at"`
	Cached     bool                `json:"cached"`
}

// Options for Service.
type Options struct {
	DB      *gorm.DB
	Search  search.Client
	Storage storage.Client
	Bucket  string
	// Targets are consulted for orphaned artifacts.
	Targets []ArtifactLister
	// Sessions backs the publish session listing.
	Sessions SessionSource
	// CacheTTL keeps reports for this long. Zero disables caching.
	CacheTTL time.Duration
}

// Service checks that published datasets are consistent across targets.
type Service struct {
	opts   Options
	cache  *reportCache
	logger *zap.Logger
}

// NewService creates a new integrity service.
func NewService(opts Options, logger *zap.Logger) *Service {
	return &Service{opts: opts, cache: newReportCache(opts.CacheTTL), logger: logger}
}

// Check returns the consistency report of a dataset published under name.
// fresh bypasses the cache.
func (s *Service) Check(ctx context.Context, name string, fresh bool) (*Report, error) {
	if fresh {
		s.cache.invalidate(name)
	}
	report, cached, err := s.cache.getOrBuild(ctx, name, func(ctx context.Context) (*Report, error) {
		return s.build(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	out := *report
	out.Cached = cached
	return &out, nil
}

func (s *Service) build(ctx context.Context, name string) (*Report, error) {
	dest := publish.Destination{Table: name, Alias: name}
	report := &Report{Name: name, Orphans: map[string][]string{}, Problems: []string{}, CheckedAt: time.Now()}
	problem := func(format string, args ...any) {
		report.Problems = append(report.Problems, fmt.Sprintf(format, args...))
	}

	if s.opts.DB != nil {
		table, err := checks.CheckTable(ctx, s.opts.DB, name)
		if err != nil {
			return nil, err
		}
		report.Table = table
		if !table.Exists {
			problem("table %s does not exist", name)
		}
	}

	if s.opts.Search != nil {
		alias, err := checks.CheckAlias(ctx, s.opts.Search, strings.ToLower(name))
		if err != nil {
			return nil, err
		}
		report.Alias = alias
		switch {
		case len(alias.Indices) == 0:
			problem("alias %s does not resolve to any index", alias.Name)
		case len(alias.Indices) > 1:
			problem("alias %s resolves to %d indices", alias.Name, len(alias.Indices))
		case alias.Concrete:
			problem("%s is a concrete index, not an alias", alias.Name)
		}
	}

	if t, a := report.Table, report.Alias; t != nil && a != nil && t.Exists && len(a.Indices) > 0 && t.Rows != a.Documents {
		problem("table holds %d rows but alias exposes %d documents", t.Rows, a.Documents)
	}

	now := time.Now()
	for _, target := range s.opts.Targets {
		names, err := target.StaleArtifacts(ctx, target.Production(dest), now)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s artifacts: %w", target.Name(), err)
		}
		if len(names) > 0 {
			report.Orphans[target.Name()] = names
			problem("%d orphaned %s artifacts", len(names), target.Name())
		}
	}

	report.Consistent = len(report.Problems) == 0
	s.logger.Info("Integrity check finished",
		zap.String("name", name),
		zap.Bool("consistent", report.Consistent),
		zap.Strings("problems", report.Problems),
	)
	return report, nil
}

// Sessions returns recent publish sessions, newest first.
func (s *Service) Sessions() []publish.Session {
	if s.opts.Sessions == nil {
		return []publish.Session{}
	}
	return s.opts.Sessions.Sessions()
}

// ErrNoStorage is returned by storage checks when object storage is disabled.
var ErrNoStorage = errors.New("storage is not configured")

// CheckStructure checks the bucket layout and, with fix, creates what is missing.
// The report is returned alongside a fix error.
func (s *Service) CheckStructure(ctx context.Context, fix bool) (*checks.StructureReport, error) {
	if s.opts.Storage == nil {
		return nil, ErrNoStorage
	}
	report, err := checks.CheckStructure(ctx, s.opts.Storage, s.opts.Bucket)
	if err != nil || !fix || report.OK() {
		return report, err
	}
	return report, checks.FixStructure(ctx, s.opts.Storage, s.logger, report)
}
