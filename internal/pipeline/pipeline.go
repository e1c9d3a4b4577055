package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/imagebatch/internal/archive"
	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	"github.com/lehigh-university-libraries/imagebatch/internal/config"
	"github.com/lehigh-university-libraries/imagebatch/internal/images"
	"github.com/lehigh-university-libraries/imagebatch/internal/search"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

// Pipeline binds a configured searcher and image store to the batch controller.
// Both front ends go through it.
type Pipeline struct {
	cfg      config.Config
	searcher search.Searcher
	store    *images.Store
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSearcher replaces the configured search provider
func WithSearcher(s search.Searcher) Option {
	return func(p *Pipeline) {
		p.searcher = s
	}
}

// New validates cfg and builds the searcher and store it describes
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := p.ArchivePath(); err != nil {
		return nil, err
	}

	if p.searcher == nil {
		s, err := search.New(ctx, cfg.Search())
		if err != nil {
			return nil, fmt.Errorf("failed to create searcher: %w", err)
		}
		p.searcher = s
	}
	p.store = images.NewStore(p.searcher, cfg.Store())

	return p, nil
}

// Config returns the configuration the pipeline was built with
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// ErrArchiveInOutput means the archive would land inside the directory it zips
var ErrArchiveInOutput = errors.New("archive path is inside the output directory")

// ArchivePath is where WriteArchive stores the zip. A relative ArchiveName is
// placed next to the output directory. A path inside the output directory is
// rejected, since the next run would zip the previous archive.
func (p *Pipeline) ArchivePath() (string, error) {
	outputDir, err := filepath.Abs(p.cfg.OutputDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}

	path := p.cfg.ArchiveName
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(outputDir), path)
	}

	rel, err := filepath.Rel(outputDir, path)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s in %s", ErrArchiveInOutput, path, outputDir)
	}
	return path, nil
}

// Run processes records and returns the result with the archive bytes attached
func (p *Pipeline) Run(ctx context.Context, records []table.Record, hooks batch.Hooks) (*batch.Result, error) {
	slog.Info("Starting batch",
		"records", len(records),
		"provider", p.cfg.Provider,
		"output_dir", p.cfg.OutputDir,
		"request_delay", p.cfg.RequestDelay,
		"batch_size", p.cfg.BatchSize,
		"batch_delay", p.cfg.BatchDelay)

	return batch.Run(ctx, records, p.store, p.cfg.Batch(), hooks, p.cfg.OutputDir)
}

// RunFile loads a table from disk and runs it
func (p *Pipeline) RunFile(ctx context.Context, path string, hooks batch.Hooks) (*batch.Result, error) {
	t, err := table.NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, t.Records, hooks)
}

// WriteArchive persists result.Archive at ArchivePath
func (p *Pipeline) WriteArchive(result *batch.Result) (string, error) {
	path, err := p.ArchivePath()
	if err != nil {
		return "", err
	}
	if err := archive.Write(path, result.Archive); err != nil {
		return "", err
	}
	return path, nil
}
