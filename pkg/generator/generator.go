// Package generator implements the parallel imprint generator: a recursive
// tree walker that hashes files and folds directories into a single
// composite Imprint per path, overlapping traversal, hashing, and emission
// across two logical pools (a bounded compute pool and a single-worker
// emit pool) without blocking a compute-pool goroutine on its own children.
package generator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/anvilfs/datim/pkg/engine"
	"github.com/anvilfs/datim/pkg/fingerprint"
	"github.com/anvilfs/datim/pkg/imprint"
	"github.com/anvilfs/datim/pkg/listener"
)

// RecordConsumer receives one Imprint per visited path, in an order not
// guaranteed to match traversal order. Implementations are invoked from a
// single dedicated goroutine, never concurrently.
type RecordConsumer interface {
	ConsumeImprint(ctx context.Context, im imprint.Imprint) error
}

// RecordConsumerFunc adapts a function to RecordConsumer.
type RecordConsumerFunc func(ctx context.Context, im imprint.Imprint) error

func (f RecordConsumerFunc) ConsumeImprint(ctx context.Context, im imprint.Imprint) error {
	return f(ctx, im)
}

// Config configures a Generator. The zero value is usable: it walks with
// one compute worker per CPU, no exclusions, a no-op listener, and no
// record consumer (ProduceImprint still returns the root imprint).
type Config struct {
	// ComputeConcurrency bounds the compute pool. Zero selects
	// engine.DefaultConcurrency().
	ComputeConcurrency int

	// Excludes filters descendants out of the walk. Nil excludes nothing.
	Excludes *ExcludeSet

	// Listener receives progress and skip notifications. Nil installs a
	// no-op listener.
	Listener listener.Listener

	// Consumer receives every visited path's imprint exactly once, from a
	// single dedicated emit goroutine. Nil disables emission entirely.
	Consumer RecordConsumer

	// Logger receives Debug-level traversal/hash start-stop pairs and
	// Warn-level skip notifications. Nil installs a discarding logger.
	Logger *slog.Logger
}

// Generator walks filesystem trees and produces composite imprints. A
// Generator may be used for multiple, independent, concurrent calls to
// ProduceImprint; all share the same bounded compute pool and emit worker.
type Generator struct {
	cfg    Config
	logger *slog.Logger
	sem    chan struct{}

	emitCh   chan imprint.Imprint
	emitWg   sync.WaitGroup
	emitErr  atomic.Pointer[error]
	emitOnce sync.Once
	closed   atomic.Bool
}

// New constructs a Generator from cfg, starting its emit worker if a
// Consumer is configured.
func New(cfg Config) *Generator {
	if cfg.ComputeConcurrency <= 0 {
		cfg.ComputeConcurrency = engine.DefaultConcurrency()
	}
	if cfg.Listener == nil {
		cfg.Listener = listener.NopListener{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	g := &Generator{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "generator"),
		sem:    make(chan struct{}, cfg.ComputeConcurrency),
	}

	if cfg.Consumer != nil {
		g.emitCh = make(chan imprint.Imprint, cfg.ComputeConcurrency*4)
		g.emitWg.Add(1)
		go g.runEmitWorker()
	}

	return g
}

// runEmitWorker is the single-threaded emit pool: it serializes calls into
// the configured Consumer, latching the first error and draining the
// channel (without calling the consumer again) once one occurs.
func (g *Generator) runEmitWorker() {
	defer g.emitWg.Done()

	ctx := context.Background()
	var failed bool

	for im := range g.emitCh {
		if failed {
			continue
		}
		if err := g.cfg.Consumer.ConsumeImprint(ctx, im); err != nil {
			wrapped := errConsumer("ConsumeImprint", err)
			g.emitErr.Store(&wrapped)
			failed = true
		}
	}
}

// emit schedules im for the consumer, if one is configured. It never waits
// on the consumer call itself, but it blocks the calling compute worker
// while the emit channel is full, so a slow consumer bounds in-flight
// memory by applying backpressure to the walk.
func (g *Generator) emit(ctx context.Context, im imprint.Imprint) {
	if g.cfg.Consumer == nil {
		return
	}
	select {
	case g.emitCh <- im:
	case <-ctx.Done():
	}
	g.cfg.Listener.OnGenerateImprint(im.Path())
}

// Shutdown stops accepting new emissions and waits for the emit worker to
// drain, returning the first consumer error encountered, if any. It is safe
// to call once after all ProduceImprint calls have returned.
func (g *Generator) Shutdown() error {
	var retErr error
	g.emitOnce.Do(func() {
		if g.emitCh != nil {
			close(g.emitCh)
			g.emitWg.Wait()
		}
		if p := g.emitErr.Load(); p != nil {
			retErr = *p
		}
	})
	return retErr
}

// ProduceImprint recursively walks the tree rooted at path and returns its
// composite imprint. It may be called multiple times, concurrently and
// independently, on the same Generator.
func (g *Generator) ProduceImprint(ctx context.Context, path string) (imprint.Imprint, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return imprint.Imprint{}, errIo("ProduceImprint", path, err)
	}
	return g.walk(ctx, root, true)
}

// walk computes the imprint for one path, acquiring a compute-pool slot for
// its own stat/hash work but never holding that slot while awaiting
// children — children acquire their own slots independently, avoiding the
// starvation deadlock that blocking-while-held would cause. isRoot marks the
// path originally passed to ProduceImprint, as opposed to a descendant
// discovered during traversal: only a descendant's unreadable directory
// listing is skipped leniently, a requested root's is not.
func (g *Generator) walk(ctx context.Context, path string, isRoot bool) (imprint.Imprint, error) {
	info, err := g.acquireAndStat(ctx, path)
	if err != nil {
		return imprint.Imprint{}, err
	}

	switch {
	case info.Mode().IsRegular():
		return g.walkFile(ctx, path, info)
	case info.IsDir():
		return g.walkDir(ctx, path, info, isRoot)
	default:
		return imprint.Imprint{}, errUnsupportedPath("walk", path)
	}
}

func (g *Generator) acquireAndStat(ctx context.Context, path string) (os.FileInfo, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()

	// Stat, not Lstat: a symlink's identity (its recorded path) is not
	// re-resolved, but its content is followed through to the target.
	info, err := os.Stat(path)
	if err != nil {
		return nil, errIo("stat", path, err)
	}
	return info, nil
}

func (g *Generator) acquire(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Generator) release() {
	<-g.sem
}

func (g *Generator) walkFile(ctx context.Context, path string, info os.FileInfo) (imprint.Imprint, error) {
	if err := g.acquire(ctx); err != nil {
		return imprint.Imprint{}, err
	}
	defer g.release()

	g.cfg.Listener.BeforeHashFile(path)
	g.logger.Debug("hash start", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return imprint.Imprint{}, errIo("open", path, err)
	}
	defer f.Close()

	contentFP, err := fingerprint.OfStream(f)
	if err != nil {
		return imprint.Imprint{}, errIo("hash", path, err)
	}

	g.cfg.Listener.AfterHashFile(path)
	g.logger.Debug("hash done", "path", path)

	im, err := imprint.ForFile(path, info.ModTime(), contentFP)
	if err != nil {
		return imprint.Imprint{}, err
	}

	g.emit(ctx, im)
	return im, nil
}

func (g *Generator) walkDir(ctx context.Context, path string, info os.FileInfo, isRoot bool) (imprint.Imprint, error) {
	g.cfg.Listener.OnEnterDirectory(path)
	g.logger.Debug("walkDir start", "path", path, "root", isRoot)

	children, err := g.listChildren(ctx, path, isRoot)
	if err != nil {
		return imprint.Imprint{}, err
	}

	childImprints, err := g.walkChildren(ctx, children)
	if err != nil {
		return imprint.Imprint{}, err
	}

	sort.Slice(childImprints, func(i, j int) bool {
		return filepath.Base(childImprints[i].Path()) < filepath.Base(childImprints[j].Path())
	})

	var contentFPs, compositeFPs []fingerprint.Hash
	for _, c := range childImprints {
		contentFPs = append(contentFPs, c.ContentFingerprint())
		compositeFPs = append(compositeFPs, c.Fingerprint())
	}

	contentFP := imprint.FoldContentFingerprints(contentFPs)
	childrenFP := imprint.FoldCompositeFingerprints(compositeFPs)

	im, err := imprint.ForDirectory(path, info.ModTime(), contentFP, childrenFP)
	if err != nil {
		return imprint.Imprint{}, err
	}

	g.emit(ctx, im)
	g.logger.Debug("walkDir done", "path", path, "root", isRoot)
	return im, nil
}

// listChildren lists path's surviving children: DOS hidden+system entries
// and configured exclusions are dropped silently (with a listener
// notification), and unreadable children are skipped with a notification
// rather than failing the enclosing directory. isRoot distinguishes the
// originally requested root from a discovered descendant: an unreadable
// root directory listing fails the whole operation instead of being
// skipped, per the documented contract for a requested root.
func (g *Generator) listChildren(ctx context.Context, path string, isRoot bool) ([]string, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	g.release()
	if err != nil {
		if os.IsPermission(err) && !isRoot {
			g.cfg.Listener.OnSkipUnreadablePath(path)
			g.logger.Warn("skipping unreadable directory", "path", path)
			return nil, nil
		}
		return nil, errIo("readdir", path, err)
	}

	var children []string
	for _, e := range entries {
		childPath := filepath.Join(path, e.Name())

		if isDOSHiddenSystem(childPath) {
			g.cfg.Listener.OnSkipExcludedPath(childPath)
			g.logger.Warn("skipping DOS hidden/system path", "path", childPath)
			continue
		}
		if g.cfg.Excludes.Matches(childPath, e.Name()) {
			g.cfg.Listener.OnSkipExcludedPath(childPath)
			g.logger.Warn("skipping excluded path", "path", childPath)
			continue
		}

		if _, statErr := os.Stat(childPath); statErr != nil && os.IsPermission(statErr) {
			g.cfg.Listener.OnSkipUnreadablePath(childPath)
			g.logger.Warn("skipping unreadable path", "path", childPath)
			continue
		}

		children = append(children, childPath)
	}
	return children, nil
}

// walkChildren computes each child's imprint concurrently, bounded by the
// generator's shared compute-pool semaphore rather than by this group's own
// limit, so nested directories never deadlock waiting for slots held by
// their own ancestors.
func (g *Generator) walkChildren(ctx context.Context, children []string) ([]imprint.Imprint, error) {
	if len(children) == 0 {
		return nil, nil
	}

	results := make([]imprint.Imprint, len(children))
	grp, gctx := errgroup.WithContext(ctx)

	for i, child := range children {
		i, child := i, child
		grp.Go(func() error {
			im, err := g.walk(gctx, child, false)
			if err != nil {
				return err
			}
			results[i] = im
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
