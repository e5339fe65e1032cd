// Package checker replays a recorded Imprint against a live filesystem path
// and classifies what, if anything, has changed.
package checker

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/anvilfs/datim/pkg/fingerprint"
	"github.com/anvilfs/datim/pkg/imprint"
	"github.com/anvilfs/datim/pkg/listener"
)

// Config configures a Checker. The zero value is usable with a no-op
// listener.
type Config struct {
	// Listener receives per-path progress and mismatch notifications. Nil
	// installs a no-op listener.
	Listener listener.Listener

	// Logger receives Debug-level check start-stop pairs and Warn-level
	// mismatch notifications. Nil installs a discarding logger.
	Logger *slog.Logger
}

// Checker compares live filesystem paths against recorded imprints. It
// holds no mutable cross-path state, so one Checker may be shared across
// concurrently checked paths.
type Checker struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs a Checker from cfg.
func New(cfg Config) *Checker {
	if cfg.Listener == nil {
		cfg.Listener = listener.NopListener{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Checker{cfg: cfg, logger: cfg.Logger.With("component", "checker")}
}

// CheckPath compares the live filesystem at path against recorded, an
// imprint previously read from a .datim file (already rebased to path's
// root, if rebasing was requested by the caller).
func (c *Checker) CheckPath(ctx context.Context, path string, recorded imprint.Imprint) (listener.Result, error) {
	c.cfg.Listener.OnCheckPath(path, recorded)
	c.cfg.Listener.BeforeCheckPath(path)
	c.logger.Debug("check start", "path", path)

	result, err := c.checkPath(ctx, path, recorded)

	c.cfg.Listener.AfterCheckPath(path)
	c.logger.Debug("check done", "path", path)
	if err == nil && !result.IsMatch() {
		c.cfg.Listener.OnResultMismatch(result)
		c.logger.Warn("mismatch found", "path", path, "kind", result.Kind, "mismatches", result.Mismatches)
	}
	return result, err
}

func (c *Checker) checkPath(ctx context.Context, path string, recorded imprint.Imprint) (listener.Result, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return listener.Result{Kind: listener.Missing, Path: path, Recorded: recorded}, nil
	}
	if err != nil {
		return listener.Result{}, errIo("stat", path, err)
	}

	if info.IsDir() {
		return c.checkDirectory(path, recorded, info)
	}
	return c.checkFile(ctx, path, recorded, info)
}

func (c *Checker) checkDirectory(path string, recorded imprint.Imprint, info os.FileInfo) (listener.Result, error) {
	var mismatches []listener.MismatchKind

	if filenameMismatch(path, recorded.Path()) {
		mismatches = append(mismatches, listener.FilenameMismatch)
	}
	if !mtimeMatches(info.ModTime(), recorded.ContentModifiedAt()) {
		mismatches = append(mismatches, listener.ContentModifiedAtMismatch)
	}

	listener.SortMismatches(mismatches)
	return listener.Result{
		Kind:       listener.ExistingDirectory,
		Path:       path,
		Recorded:   recorded,
		Mismatches: mismatches,
	}, nil
}

func (c *Checker) checkFile(ctx context.Context, path string, recorded imprint.Imprint, info os.FileInfo) (listener.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return listener.Result{}, errIo("open", path, err)
	}
	defer f.Close()

	contentFP, err := fingerprint.OfStream(f)
	if err != nil {
		return listener.Result{}, errIo("hash", path, err)
	}

	var mismatches []listener.MismatchKind
	if contentFP != recorded.ContentFingerprint() {
		mismatches = append(mismatches, listener.ContentFingerprintMismatch)
	}
	if !mtimeMatches(info.ModTime(), recorded.ContentModifiedAt()) {
		mismatches = append(mismatches, listener.ContentModifiedAtMismatch)
	}
	if filenameMismatch(path, recorded.Path()) {
		mismatches = append(mismatches, listener.FilenameMismatch)
	}

	listener.SortMismatches(mismatches)
	return listener.Result{
		Kind:       listener.ExistingFile,
		Path:       path,
		Recorded:   recorded,
		Mismatches: mismatches,
	}, nil
}

// mtimeMatches compares two modification times at millisecond precision:
// both the live and the recorded mtime feed the composite fingerprint at
// that precision, so a timestamp mismatch here never disagrees with a
// fingerprint mismatch. time.Time.UnixMilli already floors to the
// millisecond, so no separate truncation step is needed.
func mtimeMatches(live, recorded time.Time) bool {
	return live.UnixMilli() == recorded.UnixMilli()
}

// filenameMismatch compares the string form of each path's final
// component, so a case-only rename is detected even on a case-insensitive
// filesystem where native path equality would hide it. A path with no
// final component (a filesystem root) is treated as matching any filename,
// which lets a volume root be compared against a backup subdirectory.
func filenameMismatch(livePath, recordedPath string) bool {
	liveName := filepath.Base(filepath.Clean(livePath))
	recordedName := filepath.Base(filepath.Clean(recordedPath))

	if isRootName(livePath, liveName) || isRootName(recordedPath, recordedName) {
		return false
	}
	return liveName != recordedName
}

func isRootName(path, name string) bool {
	clean := filepath.Clean(path)
	return clean == filepath.Dir(clean) || name == "."
}
