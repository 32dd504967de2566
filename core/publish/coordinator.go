package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/metrics"
)

// Destination names the production artifacts of one dataset.
type Destination struct {
	// Table is the production table name.
	Table string `json:"table"`
	// Alias is the consumer-facing search alias.
	Alias string `json:"alias"`
}

// Swapper replaces one production artifact. Implementations must leave production
// untouched on any error returned before their atomic step.
type Swapper interface {
	// Name identifies the target in logs, reports and metrics.
	Name() string
	// Production picks the artifact this swapper owns from a destination.
	Production(dest Destination) string
	// Swap publishes t into sess.Production.
	Swap(ctx context.Context, sess *Session, t *dataset.Table) error
	// StaleArtifacts lists unreferenced staging artifacts of production created before cutoff.
	StaleArtifacts(ctx context.Context, production string, cutoff time.Time) ([]string, error)
	// DropArtifacts removes staging artifacts.
	DropArtifacts(ctx context.Context, names []string) error
}

// Coordinator publishes a dataset to every configured target.
type Coordinator struct {
	cfg      Config
	swappers []Swapper
	log      *zap.Logger
	metrics  *metrics.Metrics
	locks    *targetLocks
	sessions *SessionLog
	now      func() time.Time
}

// NewCoordinator creates a coordinator. Targets are independent; no transaction spans them.
func NewCoordinator(cfg Config, log *zap.Logger, m *metrics.Metrics, swappers ...Swapper) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		cfg:      cfg,
		swappers: swappers,
		log:      log,
		metrics:  m,
		locks:    newTargetLocks(),
		sessions: NewSessionLog(100),
		now:      time.Now,
	}
}

// Targets returns the configured target names.
func (c *Coordinator) Targets() []string {
	names := make([]string, len(c.swappers))
	for i, s := range c.swappers {
		names[i] = s.Name()
	}
	return names
}

// Sessions returns recently finished sessions, newest first.
func (c *Coordinator) Sessions() []Session {
	return c.sessions.Recent()
}

// Publish replaces every target's production artifact with t.
// The returned report is always non-nil. The error is a *PublishError when any target failed,
// or a classified *Error when the dataset was refused before any target ran.
func (c *Coordinator) Publish(ctx context.Context, t *dataset.Table, dest Destination) (*Report, error) {
	report := &Report{Dataset: dest.Table, StartedAt: c.now()}
	if t != nil {
		report.Rows = t.Len()
	}

	if err := c.validate(t); err != nil {
		report.Outcome = OutcomeFailed
		report.Duration = time.Since(report.StartedAt)
		return report, err
	}
	if len(c.swappers) == 0 {
		report.Outcome = OutcomeFailed
		return report, errors.New("no publish targets configured")
	}

	results := make([]TargetResult, len(c.swappers))
	errs := make([]error, len(c.swappers))

	run := func(i int) {
		results[i], errs[i] = c.publishTarget(ctx, c.swappers[i], t, dest)
	}
	if c.cfg.Parallel {
		// errgroup.Group without a context: one target failing must not cancel the other.
		var g errgroup.Group
		for i := range c.swappers {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range c.swappers {
			run(i)
		}
	}

	report.Targets = results
	report.Duration = time.Since(report.StartedAt)

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	switch {
	case len(failed) == 0:
		report.Outcome = OutcomeSuccess
	case len(failed) == len(c.swappers):
		report.Outcome = OutcomeFailed
	default:
		report.Outcome = OutcomeDegraded
	}

	c.log.Info("Publish finished",
		zap.String("dataset", report.Dataset),
		zap.String("outcome", string(report.Outcome)),
		zap.Int("rows", report.Rows),
		zap.Duration("duration", report.Duration),
	)
	if len(failed) > 0 {
		return report, &PublishError{Report: report, Errs: failed}
	}
	return report, nil
}

func (c *Coordinator) validate(t *dataset.Table) error {
	if t == nil || t.Len() == 0 {
		return newError(KindSchema, "", "validate dataset", errors.New("refusing to publish an empty dataset"))
	}
	if err := t.Validate(); err != nil {
		return newError(KindSchema, "", "validate dataset", err)
	}
	return nil
}

func (c *Coordinator) publishTarget(ctx context.Context, s Swapper, t *dataset.Table, dest Destination) (TargetResult, error) {
	production := s.Production(dest)
	sess := NewSession(c.log, s.Name(), dest.Table, production, t.Len())
	start := time.Now()

	var err error
	defer func() {
		sess.finish(err)
		c.sessions.Add(sess.snapshot())
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeFailed
		}
		c.metrics.PublishFinished(s.Name(), dest.Table, string(outcome), t.Len(), time.Since(start))
	}()

	if production == "" {
		err = newError(KindSchema, s.Name(), "resolve destination", errors.New("empty production name"))
		return resultOf(sess, err, time.Since(start)), err
	}

	release, lockErr := c.locks.acquire(ctx, s.Name()+":"+production)
	if lockErr != nil {
		err = newError(KindStagingLoad, s.Name(), "wait for target lock", lockErr)
		return resultOf(sess, err, time.Since(start)), err
	}
	defer release()

	c.dropStale(ctx, s, production, sess)

	if swapErr := s.Swap(ctx, sess, t); swapErr != nil {
		var pe *Error
		if !errors.As(swapErr, &pe) {
			swapErr = newError(KindSwap, s.Name(), "swap", swapErr)
		}
		err = swapErr
		sess.Logger().Error("Publish target failed", zap.Error(err))
		return resultOf(sess, err, time.Since(start)), err
	}

	for range sess.Warnings {
		c.metrics.CleanupFailed(s.Name())
	}
	sess.Logger().Info("Publish target succeeded", zap.Int("rows", t.Len()))
	return resultOf(sess, nil, time.Since(start)), nil
}

// dropStale removes leftovers of earlier aborted runs. Failures are warnings.
func (c *Coordinator) dropStale(ctx context.Context, s Swapper, production string, sess *Session) {
	if c.cfg.StaleAfter <= 0 {
		return
	}
	stale, err := s.StaleArtifacts(ctx, production, c.now().Add(-c.cfg.StaleAfter))
	if err == nil && len(stale) > 0 {
		err = s.DropArtifacts(ctx, stale)
		if err == nil {
			sess.Logger().Info("Dropped stale staging artifacts", zap.Strings("artifacts", stale))
		}
	}
	if err != nil {
		sess.Warn(newError(KindCleanup, s.Name(), "drop stale artifacts", err))
	}
}

// CleanupPlan lists stale staging artifacts per target.
type CleanupPlan struct {
	Cutoff    time.Time           `json:"cutoff"`
	Artifacts map[string][]string `json:"artifacts"`
}

// Total returns the number of planned drops.
func (p *CleanupPlan) Total() int {
	n := 0
	for _, names := range p.Artifacts {
		n += len(names)
	}
	return n
}

// CleanupOptions controls ApplyCleanup.
type CleanupOptions struct {
	// DryRun prevents any drop.
	DryRun bool
}

// PlanCleanup lists staging artifacts of dest older than olderThan. It does not drop anything.
func (c *Coordinator) PlanCleanup(ctx context.Context, dest Destination, olderThan time.Duration) (*CleanupPlan, error) {
	plan := &CleanupPlan{Cutoff: c.now().Add(-olderThan), Artifacts: make(map[string][]string)}
	for _, s := range c.swappers {
		stale, err := s.StaleArtifacts(ctx, s.Production(dest), plan.Cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s artifacts: %w", s.Name(), err)
		}
		if len(stale) > 0 {
			plan.Artifacts[s.Name()] = stale
		}
	}
	return plan, nil
}

// ApplyCleanup drops the artifacts of a plan while holding each target's lock.
// It returns the number of artifacts dropped.
func (c *Coordinator) ApplyCleanup(ctx context.Context, dest Destination, plan *CleanupPlan, opts CleanupOptions) (int, error) {
	if opts.DryRun {
		return 0, nil
	}
	dropped := 0
	var errs []error
	for _, s := range c.swappers {
		names := plan.Artifacts[s.Name()]
		if len(names) == 0 {
			continue
		}
		release, err := c.locks.acquire(ctx, s.Name()+":"+s.Production(dest))
		if err != nil {
			return dropped, err
		}
		err = s.DropArtifacts(ctx, names)
		release()
		if err != nil {
			c.metrics.CleanupFailed(s.Name())
			errs = append(errs, newError(KindCleanup, s.Name(), "drop artifacts", err))
			continue
		}
		dropped += len(names)
	}
	return dropped, errors.Join(errs...)
}
