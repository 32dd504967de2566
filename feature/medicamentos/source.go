package medicamentos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"medicamentos-etl/core/storage"

	"go.uber.org/zap"
)

const (
	rawPrefix     = "raw/"
	datasetPrefix = "datasets/"
)

// ErrInputsNotFound is returned when the raw ANVISA or CMED file cannot be located.
var ErrInputsNotFound = errors.New("raw input files not found")

// Inputs are the resolved raw files of one run.
type Inputs struct {
	AnvisaPath string `json:"anvisa_path"`
	CMEDPath   string `json:"cmed_path"`
}

// Source locates raw inputs on disk, fetching them from the bucket first when a client is set.
type Source struct {
	cfg    Config
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewSource creates a Source. A nil client keeps everything local.
func NewSource(cfg Config, client storage.Client, bucket string, logger *zap.Logger) *Source {
	return &Source{cfg: cfg, client: client, bucket: bucket, logger: logger}
}

// Resolve returns the ANVISA file and the most recent CMED file.
func (s *Source) Resolve(ctx context.Context) (Inputs, error) {
	if s.client != nil {
		if err := s.fetch(ctx); err != nil {
			return Inputs{}, err
		}
	}

	anvisa := filepath.Join(s.cfg.DataDir, s.cfg.AnvisaFile)
	if _, err := os.Stat(anvisa); err != nil {
		return Inputs{}, fmt.Errorf("%w: %s", ErrInputsNotFound, anvisa)
	}

	cmed, err := latestFile(s.cfg.DataDir, s.cfg.CMEDPattern, s.cfg.AnvisaFile)
	if err != nil {
		return Inputs{}, err
	}
	if cmed == "" {
		return Inputs{}, fmt.Errorf("%w: no %s in %s", ErrInputsNotFound, s.cfg.CMEDPattern, s.cfg.DataDir)
	}

	s.logger.Info("Resolved raw inputs", zap.String("anvisa", anvisa), zap.String("cmed", cmed))
	return Inputs{AnvisaPath: anvisa, CMEDPath: cmed}, nil
}

// fetch downloads the ANVISA file and the latest CMED object from raw/.
func (s *Source) fetch(ctx context.Context) error {
	anvisaObj := rawPrefix + s.cfg.AnvisaFile
	if err := storage.Download(ctx, s.client, s.bucket, anvisaObj, filepath.Join(s.cfg.DataDir, s.cfg.AnvisaFile)); err != nil {
		return fmt.Errorf("%w: %v", ErrInputsNotFound, err)
	}

	obj, ok, err := storage.LatestObject(ctx, s.client, s.bucket, rawPrefix, s.cfg.CMEDPattern)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no %s under %s/%s", ErrInputsNotFound, s.cfg.CMEDPattern, s.bucket, rawPrefix)
	}
	dest := filepath.Join(s.cfg.DataDir, path.Base(obj.Key))
	if err := storage.Download(ctx, s.client, s.bucket, obj.Key, dest); err != nil {
		return err
	}
	// Keep the bucket's ordering when the local copy is later chosen by mtime.
	_ = os.Chtimes(dest, obj.LastModified, obj.LastModified)

	s.logger.Info("Fetched raw inputs from storage",
		zap.String("bucket", s.bucket),
		zap.String("anvisa", anvisaObj),
		zap.String("cmed", obj.Key),
	)
	return nil
}

// Archive uploads a canonical file as datasets/<name>/<unix millis>.csv and prunes
// archives beyond ArchiveKeep. Pruning failures are logged only. It is a no-op
// without a client.
func (s *Source) Archive(ctx context.Context, file, name string, at time.Time) (string, error) {
	if s.client == nil || !s.cfg.Archive {
		return "", nil
	}
	prefix := datasetPrefix + name + "/"
	object := prefix + strconv.FormatInt(at.UnixMilli(), 10) + ".csv"
	if _, err := storage.Upload(ctx, s.client, s.bucket, object, file, "text/csv"); err != nil {
		return "", err
	}

	removed, err := storage.Prune(ctx, s.client, s.bucket, prefix, s.cfg.ArchiveKeep)
	if err != nil {
		s.logger.Warn("Failed to prune archived datasets", zap.String("prefix", prefix), zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("Pruned archived datasets", zap.String("prefix", prefix), zap.Int("removed", len(removed)))
	}
	return object, nil
}

// latestFile returns the most recently modified file in dir matching pattern, skipping exclude.
func latestFile(dir, pattern, exclude string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var (
		latest  string
		latestT time.Time
	)
	for _, m := range matches {
		if filepath.Base(m) == exclude {
			continue
		}
		st, err := os.Stat(m)
		if err != nil || st.IsDir() {
			continue
		}
		if latest == "" || st.ModTime().After(latestT) {
			latest, latestT = m, st.ModTime()
		}
	}
	return latest, nil
}
