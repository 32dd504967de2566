package medicamentos

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/metrics"
	"medicamentos-etl/core/publish"

	"go.uber.org/zap"
)

const maxDegradationSamples = 100

// DegradationSummary aggregates row degradations of a run.
type DegradationSummary struct {
	Total    int            `json:"total"`
	Dropped  int            `json:"dropped"`
	ByReason map[string]int `json:"by_reason"`
	// Samples holds the first degradations in source order.
	Samples []Degradation `json:"samples"`
}

func summarize(degr []Degradation) DegradationSummary {
	s := DegradationSummary{Total: len(degr), ByReason: make(map[string]int)}
	for _, d := range degr {
		s.ByReason[d.Source+":"+d.Reason]++
		if d.Dropped {
			s.Dropped++
		}
	}
	s.Samples = degr[:min(len(degr), maxDegradationSamples)]
	return s
}

// TransformResult is the outcome of the normalize and merge stages.
type TransformResult struct {
	Inputs       Inputs             `json:"inputs"`
	AnvisaRows   int                `json:"anvisa_rows"`
	CMEDRows     int                `json:"cmed_rows"`
	Merge        MergeStats         `json:"merge"`
	Degradations DegradationSummary `json:"degradations"`
	Output       string             `json:"output"`
	Archived     string             `json:"archived,omitempty"`

	Table *dataset.Table `json:"-"`
}

// RunResult is the outcome of a full pipeline run.
type RunResult struct {
	Transform *TransformResult `json:"transform"`
	Publish   *publish.Report  `json:"publish,omitempty"`
}

// Publisher replaces production artifacts with a dataset.
type Publisher interface {
	Publish(ctx context.Context, t *dataset.Table, dest publish.Destination) (*publish.Report, error)
}

// Service runs the medicamentos pipeline.
type Service struct {
	cfg       Config
	policy    MatchPolicy
	source    *Source
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService creates a pipeline service. The match policy is validated here.
func NewService(cfg Config, source *Source, publisher Publisher, m *metrics.Metrics, logger *zap.Logger) (*Service, error) {
	policy, err := ParseMatchPolicy(cfg.MatchPolicy)
	if err != nil {
		return nil, err
	}
	if cfg.IdentifierLength < BaseLength {
		return nil, fmt.Errorf("identifier_length %d is shorter than the %d-digit base identifier", cfg.IdentifierLength, BaseLength)
	}
	return &Service{
		cfg:       cfg,
		policy:    policy,
		source:    source,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}, nil
}

// Destination returns the production table and alias of the canonical dataset.
func (s *Service) Destination() publish.Destination {
	return publish.Destination{Table: s.cfg.Table, Alias: s.cfg.Alias}
}

// ExchangeFile returns the path of the canonical exchange file.
func (s *Service) ExchangeFile() string {
	return filepath.Join(s.cfg.ProcessedDir, s.cfg.UnifiedFile)
}

// Transform reads the raw inputs, normalizes, merges and writes the exchange file.
func (s *Service) Transform(ctx context.Context) (*TransformResult, error) {
	start := time.Now()
	s.logger.Info("Starting transform", zap.String("policy", string(s.policy)))

	inputs, err := s.source.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rawAnvisa, err := dataset.ReadRawFile(inputs.AnvisaPath, dataset.ReadOptions{
		Delimiter: ';',
		Encoding:  s.cfg.AnvisaEncoding,
	})
	if err != nil {
		return nil, err
	}
	rawCMED, err := dataset.ReadRawFile(inputs.CMEDPath, dataset.ReadOptions{
		SkipRows: s.cfg.CMEDSkipRows,
		Encoding: s.cfg.CMEDEncoding,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RowsRead(SourceAnvisa, len(rawAnvisa.Rows))
	s.metrics.RowsRead(SourceCMED, len(rawCMED.Rows))

	anvisa, degrA, err := NormalizeAnvisa(rawAnvisa, s.cfg.IdentifierLength)
	if err != nil {
		return nil, err
	}
	cmed, degrB, err := NormalizeCMED(rawCMED)
	if err != nil {
		return nil, err
	}
	degr := append(degrA, degrB...)
	s.report(degr)

	records, stats, err := Merge(anvisa, cmed, s.policy)
	if err != nil {
		return nil, err
	}
	s.metrics.RowsMerged(stats.Matched)

	table := ToTable(s.cfg.Table, records, s.policy)
	output := s.ExchangeFile()
	if err := dataset.WriteFile(output, table); err != nil {
		return nil, err
	}

	result := &TransformResult{
		Inputs:       inputs,
		AnvisaRows:   len(rawAnvisa.Rows),
		CMEDRows:     len(rawCMED.Rows),
		Merge:        stats,
		Degradations: summarize(degr),
		Output:       output,
		Table:        table,
	}

	archived, err := s.source.Archive(ctx, output, s.cfg.Table, start)
	if err != nil {
		s.logger.Warn("Failed to archive canonical dataset", zap.Error(err))
	}
	result.Archived = archived

	s.logger.Info("Transform finished",
		zap.Int("anvisa_rows", result.AnvisaRows),
		zap.Int("cmed_rows", result.CMEDRows),
		zap.Int("matched", stats.Matched),
		zap.Int("unmatched_anvisa", stats.UnmatchedAnvisa),
		zap.Int("unmatched_cmed", stats.UnmatchedCMED),
		zap.Int("ambiguous", stats.Ambiguous),
		zap.Int("degradations", len(degr)),
		zap.String("output", output),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Publish loads an exchange file and publishes it. An empty path uses ExchangeFile.
func (s *Service) Publish(ctx context.Context, file string) (*publish.Report, error) {
	if file == "" {
		file = s.ExchangeFile()
	}
	table, err := ReadExchangeFile(file, s.cfg.Table, s.policy)
	if err != nil {
		return nil, err
	}
	return s.publisher.Publish(ctx, table, s.Destination())
}

// Run transforms and publishes. The transform result is returned even when publishing fails.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	tr, err := s.Transform(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.publisher.Publish(ctx, tr.Table, s.Destination())
	return &RunResult{Transform: tr, Publish: report}, err
}

func (s *Service) report(degr []Degradation) {
	for _, d := range degr {
		s.metrics.RowDegraded(d.Source, d.Reason)
		s.logger.Warn("Row degraded",
			zap.String("source", d.Source),
			zap.Int("row", d.Row),
			zap.String("column", d.Column),
			zap.String("reason", d.Reason),
			zap.String("value", d.Value),
			zap.Bool("dropped", d.Dropped),
		)
	}
}
