package manual

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/publish"

	"go.uber.org/zap"
)

var (
	// ErrInvalidName is returned for file or table names that are not plain identifiers.
	ErrInvalidName = errors.New("invalid name")
	// ErrFileNotFound is returned when the source file does not exist in the manual directory.
	ErrFileNotFound = errors.New("manual file not found")
)

// Publisher replaces production artifacts with a dataset.
type Publisher interface {
	Publish(ctx context.Context, t *dataset.Table, dest publish.Destination) (*publish.Report, error)
}

// Request describes one manual load.
type Request struct {
	// File is a file name inside the manual directory.
	File string
	// Table names the production table and alias. Empty derives it from File.
	Table string
	// Key lists primary-key columns. Empty publishes without a key.
	Key []string
	// Encoding of the file; empty means UTF-8.
	Encoding string
}

// Result is the outcome of a manual load.
type Result struct {
	File    string           `json:"file"`
	Table   string           `json:"table"`
	Rows    int              `json:"rows"`
	Columns []dataset.Column `json:"columns"`
	// Skipped is set when the file had no data rows and nothing was published.
	Skipped bool            `json:"skipped,omitempty"`
	Publish *publish.Report `json:"publish,omitempty"`
}

// Service loads already-tabular reference files straight into the publish targets.
type Service struct {
	dir       string
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a manual loader reading from dir.
func NewService(dir string, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{dir: dir, publisher: publisher, logger: logger}
}

// Load reads a file from the manual directory and publishes it under the requested name.
// The publish report is returned alongside any publish error.
func (s *Service) Load(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	path, err := s.resolve(req.File)
	if err != nil {
		return nil, err
	}

	name := req.Table
	if name == "" {
		name = strings.TrimSuffix(req.File, filepath.Ext(req.File))
	}
	table, err := TableName(name)
	if err != nil {
		return nil, err
	}

	l := s.logger.With(zap.String("file", req.File), zap.String("table", table))
	l.Info("Starting manual load", zap.String("path", path))

	raw, err := dataset.ReadRawFile(path, dataset.ReadOptions{Encoding: req.Encoding})
	if err != nil {
		return nil, err
	}

	result := &Result{File: req.File, Table: table, Rows: len(raw.Rows), Columns: dataset.InferColumns(raw)}
	if len(raw.Rows) == 0 {
		l.Warn("Manual file has no rows, nothing to load")
		result.Skipped = true
		return result, nil
	}

	t, bad, err := dataset.FromRaw(raw, table, result.Columns, req.Key)
	if err != nil {
		return nil, &publish.Error{Kind: publish.KindSchema, Step: "read " + req.File, Err: err}
	}
	if bad > 0 {
		l.Warn("Cells could not be parsed and were nulled", zap.Int("cells", bad))
	}
	if err := t.Validate(); err != nil {
		return nil, &publish.Error{Kind: publish.KindSchema, Step: "read " + req.File, Err: err}
	}
	l.Info("Read manual file", zap.Int("rows", t.Len()), zap.Int("columns", len(t.Columns)))

	report, err := s.publisher.Publish(ctx, t, publish.Destination{Table: table, Alias: table})
	result.Publish = report
	if err != nil {
		l.Error("Manual load failed", zap.Error(err))
		return result, err
	}

	l.Info("Manual load finished", zap.Duration("duration", time.Since(start)))
	return result, nil
}

// Files lists the loadable files in the manual directory.
func (s *Service) Files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

// resolve maps a bare file name to a path inside the manual directory.
func (s *Service) resolve(file string) (string, error) {
	if file == "" || file != filepath.Base(file) || file == "." || file == ".." || strings.ContainsAny(file, `/\`) {
		return "", fmt.Errorf("%w: file %q must be a bare file name", ErrInvalidName, file)
	}
	path := filepath.Join(s.dir, file)
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return path, nil
}

// TableName lowercases name and replaces anything outside [a-z0-9_] with '_'.
// The result must start with a letter or underscore and fit a Postgres identifier.
func TableName(name string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		return "", fmt.Errorf("%w: %q does not yield a table name", ErrInvalidName, name)
	}
	if len(out) > 63 {
		return "", fmt.Errorf("%w: %q is longer than 63 characters", ErrInvalidName, out)
	}
	return out, nil
}
