package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"runtime"

	"github.com/anvilfs/datim/pkg/common/fileops"
	"github.com/anvilfs/datim/pkg/config"
	"github.com/anvilfs/datim/pkg/datim"
	"github.com/anvilfs/datim/pkg/generator"
	"github.com/anvilfs/datim/pkg/imprint"
)

// outputSink buffers everything written through it so the CLI can either
// atomically replace a named output file or stream straight to stdout,
// without the generator or checker needing to know which.
type outputSink struct {
	buf      bytes.Buffer
	destPath string
}

func newOutputSink(destPath string) *outputSink {
	return &outputSink{destPath: destPath}
}

func (s *outputSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// lineTerminator returns LF when writing to a named file, and the
// platform's native line terminator when streaming to an interactive
// stream (stdout), matching the format's documented terminator contract.
func (s *outputSink) lineTerminator() string {
	if s.destPath != "" {
		return "\n"
	}
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// flush writes the buffered bytes to the destination: atomically to the
// named file, or directly to stdout.
func (s *outputSink) flush() error {
	if s.destPath == "" {
		_, err := io.Copy(os.Stdout, &s.buf)
		return err
	}
	if err := fileops.EnsureParentDir(s.destPath); err != nil {
		return err
	}
	return fileops.AtomicWrite(s.destPath, s.buf.Bytes(), 0644)
}

// buildExcludes merges a config's default exclusions with the CLI's
// --exclude-* flags into one immutable ExcludeSet.
func buildExcludes(defaults config.Excludes, paths, pathGlobs, filenameGlobs []string) *generator.ExcludeSet {
	var opts []generator.ExcludeOption
	for _, p := range append(defaults.Paths, paths...) {
		opts = append(opts, generator.ExcludePath(p))
	}
	for _, g := range append(defaults.PathGlobs, pathGlobs...) {
		opts = append(opts, generator.ExcludePathGlob(g))
	}
	for _, g := range append(defaults.FilenameGlobs, filenameGlobs...) {
		opts = append(opts, generator.ExcludeFilenameGlob(g))
	}
	return generator.NewExcludeSet(opts...)
}

// loadConfig loads datim's JSON configuration from the conventional
// "datim.config.json" file in the current directory, if present, falling
// back to config.Default() otherwise.
func loadConfig() (config.Config, error) {
	return config.LoadFile("datim.config.json")
}

// datimWriterConsumer adapts a *datim.Writer into a generator.RecordConsumer,
// assigning each emitted imprint the next sequential line number. The
// generator's emit pool calls ConsumeImprint from a single goroutine, so no
// locking is needed around the counter.
type datimWriterConsumer struct {
	w          *datim.Writer
	lineNumber uint64
}

func newDatimWriterConsumer(w *datim.Writer) *datimWriterConsumer {
	return &datimWriterConsumer{w: w}
}

func (c *datimWriterConsumer) ConsumeImprint(_ context.Context, im imprint.Imprint) error {
	c.lineNumber++
	return c.w.WriteImprint(c.lineNumber, im)
}

var _ generator.RecordConsumer = (*datimWriterConsumer)(nil)
