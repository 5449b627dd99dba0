package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/AnyUserName/imgprint/internal/manifest"
	"github.com/AnyUserName/imgprint/internal/profile"
	"golang.org/x/sync/errgroup"
)

// Config holds all parameters for a scan run.
type Config struct {
	InputDir string
	Profile  profile.Profile
	Workers  int
	Logger   *slog.Logger
}

// Pipeline orchestrates directory fingerprinting.
type Pipeline struct {
	cfg Config
	log *slog.Logger
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = cfg.Profile.Workers
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, log: log.With("component", "pipeline")}
}

// processResult holds the outcome for one source image.
type processResult struct {
	key   string
	entry manifest.Entry
	err   error
}

// Run scans the input directory, fingerprints every image and returns
// the resulting index. Individual failures are logged and counted; the
// run fails only when every image fails or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	start := time.Now()
	prof := p.cfg.Profile

	sources, err := ScanImages(p.cfg.InputDir, prof.ExtensionSet())
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	p.log.Info("found images", "count", len(sources), "workers", p.cfg.Workers)

	results := make([]processResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.log.Debug("processing", "key", src.Key)
			entry, err := processImage(src, prof)
			results[i] = processResult{key: src.Key, entry: entry, err: err}
			if err == nil {
				p.log.Debug("done", "key", src.Key, "phash", entry.PHash)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := manifest.New(prof.Name, prof.HashSize, prof.Threshold, prof.BlockBits)
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			p.log.Warn("fingerprint failed", "key", r.key, "err", r.err)
			continue
		}
		m.Entries[r.key] = r.entry
	}
	if failed == len(sources) {
		return nil, fmt.Errorf("all %d images failed to process", failed)
	}
	if failed > 0 {
		p.log.Warn("some images had errors", "failed", failed, "total", len(sources))
	}

	m.Groups = GroupDuplicates(m.Entries, prof.Threshold)
	m.BuildInfo = &manifest.BuildInfo{
		Workers:  p.cfg.Workers,
		RootDir:  p.cfg.InputDir,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	m.Stats.Failed = failed
	m.ComputeStats()
	return m, nil
}
