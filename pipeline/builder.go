// Package pipeline drives typebridge over a source tree: file walking,
// concurrent compilation, a content addressed build cache, and a dev
// server that compiles on demand.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"go.miragespace.co/typebridge"

	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

const defaultParallelism = 4

// Stats counts one Build run. Counters are padded so concurrent workers
// do not contend on the same cache line.
type Stats struct {
	Compiled atomic.Uint64
	_        cpu.CacheLinePad
	Cached   atomic.Uint64
	_        cpu.CacheLinePad
	Skipped  atomic.Uint64
	_        cpu.CacheLinePad
	Failed   atomic.Uint64
}

type BuilderConfig struct {
	Logger  *zap.Logger
	Adapter *typebridge.Adapter

	// SourceDir is the tree walked for compilable files. Required.
	SourceDir string

	// OutputDir receives the emitted JavaScript. Only required for Build;
	// the dev server compiles in memory.
	OutputDir string

	// Cache short-circuits recompiles of unchanged sources. Optional.
	Cache *Cache

	// Parallelism bounds concurrent compiles. Zero means
	// defaultParallelism.
	Parallelism int
}

// Builder compiles every matching file under a source tree through one
// shared adapter.
type Builder struct {
	logger   *zap.Logger
	adapter  *typebridge.Adapter
	cache    *Cache
	source   string
	output   string
	parallel int
}

func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("adapter cannot be nil")
	}
	if cfg.SourceDir == "" {
		return nil, fmt.Errorf("source directory cannot be empty")
	}

	parallel := cfg.Parallelism
	if parallel < 1 {
		parallel = defaultParallelism
	}

	return &Builder{
		logger:   cfg.Logger,
		adapter:  cfg.Adapter,
		cache:    cfg.Cache,
		source:   cfg.SourceDir,
		output:   cfg.OutputDir,
		parallel: parallel,
	}, nil
}

// Build walks the source tree once and writes compiled outputs. Per-file
// failures do not stop the run; they are collected and reported together
// after every file has been attempted.
func (b *Builder) Build(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if b.output == "" {
		return stats, fmt.Errorf("output directory cannot be empty")
	}
	failures := xsync.NewMapOf[string]()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallel)

	walkErr := filepath.WalkDir(b.source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(b.source, path)
		if err != nil {
			return err
		}
		if !b.adapter.Match(rel) {
			stats.Skipped.Add(1)
			return nil
		}

		g.Go(func() error {
			if err := b.buildFile(gctx, rel, stats); err != nil {
				stats.Failed.Add(1)
				failures.Store(rel, err.Error())
			}
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	if walkErr != nil {
		return stats, walkErr
	}

	var failed []string
	failures.Range(func(key string, value string) bool {
		failed = append(failed, fmt.Sprintf("%s:\n%s", key, value))
		return true
	})
	if len(failed) > 0 {
		sort.Strings(failed)
		return stats, fmt.Errorf("build failed for %d file(s):\n%s", len(failed), strings.Join(failed, "\n"))
	}

	return stats, nil
}

func (b *Builder) buildFile(ctx context.Context, rel string, stats *Stats) error {
	raw, err := os.ReadFile(filepath.Join(b.source, rel))
	if err != nil {
		return err
	}

	out, cached, err := b.compile(ctx, rel, string(raw))
	if err != nil {
		return err
	}
	if cached {
		stats.Cached.Add(1)
	} else {
		stats.Compiled.Add(1)
	}

	outRel := typebridge.OutputPath(rel)
	dst := filepath.Join(b.output, outRel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	data := out.Data
	if out.Map != "" {
		mapName := filepath.Base(outRel) + ".map"
		data += "//# sourceMappingURL=" + mapName + "\n"
		if err := os.WriteFile(dst+".map", []byte(out.Map), 0o644); err != nil {
			return err
		}
	}
	if err := os.WriteFile(dst, []byte(data), 0o644); err != nil {
		return err
	}

	b.logger.Debug("compiled",
		zap.String("source", rel),
		zap.String("output", outRel),
		zap.Bool("cached", cached),
	)
	return nil
}

// compile runs one file through the cache and the adapter.
func (b *Builder) compile(ctx context.Context, rel, data string) (typebridge.File, bool, error) {
	sum := sha256.Sum256([]byte(data))

	if b.cache != nil {
		if entry, ok := b.cache.Lookup(rel, sum); ok {
			return typebridge.File{Path: rel, Data: entry.Data, Map: entry.Map}, true, nil
		}
	}

	out, err := b.adapter.Compile(ctx, typebridge.File{Path: rel, Data: data})
	if err != nil {
		return typebridge.File{}, false, err
	}

	if b.cache != nil {
		b.cache.Store(rel, sum, out)
	}
	return out, false, nil
}

// ResolveSource maps a requested JavaScript path back to the TypeScript
// source that produces it.
func (b *Builder) ResolveSource(jsPath string) (string, bool) {
	base := strings.TrimSuffix(jsPath, ".js")
	for _, ext := range []string{".ts", ".tsx"} {
		rel := base + ext
		if !b.adapter.Match(rel) {
			continue
		}
		if _, err := os.Stat(filepath.Join(b.source, rel)); err == nil {
			return rel, true
		}
	}
	return "", false
}
