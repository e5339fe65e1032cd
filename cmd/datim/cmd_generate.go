package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anvilfs/datim/cmd/datim/internal/ui"
	"github.com/anvilfs/datim/pkg/common/logger"
	"github.com/anvilfs/datim/pkg/config"
	"github.com/anvilfs/datim/pkg/datim"
	"github.com/anvilfs/datim/pkg/generator"
)

func newGenerateCmd() *cobra.Command {
	var (
		output              string
		outputCharset       string
		executor            string
		excludePaths        []string
		excludePathGlobs    []string
		excludeFilenameGlobs []string
	)

	cmd := &cobra.Command{
		Use:   "generate <data...>",
		Short: "Walk one or more paths and emit a .datim imprint file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, output, outputCharset, executor, excludePaths, excludePathGlobs, excludeFilenameGlobs)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Write the imprint to this file instead of stdout")
	cmd.Flags().StringVar(&outputCharset, "output-charset", "utf-8", "Charset for the output file")
	cmd.Flags().StringVar(&executor, "executor", "", "Compute pool strategy (fixedthread|cachedthread|forkjoinfifo|forkjoinlifo)")
	cmd.Flags().StringArrayVar(&excludePaths, "exclude-path", nil, "Exact path to exclude (repeatable)")
	cmd.Flags().StringArrayVar(&excludePathGlobs, "exclude-path-glob", nil, "Full-path glob to exclude (repeatable)")
	cmd.Flags().StringArrayVar(&excludeFilenameGlobs, "exclude-filename-glob", nil, "Filename glob to exclude (repeatable)")

	return cmd
}

func runGenerate(cmd *cobra.Command, roots []string, output, outputCharset, executor string, excludePaths, excludePathGlobs, excludeFilenameGlobs []string) error {
	if outputCharset != "" && strings.ToLower(outputCharset) != "utf-8" {
		return fmt.Errorf("unsupported output charset: %s", outputCharset)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if executor == "" {
		executor = cfg.Executor
	}
	switch executor {
	case config.ExecutorFixedThread, config.ExecutorCachedThread, config.ExecutorForkJoinFIFO, config.ExecutorForkJoinLIFO:
	default:
		return fmt.Errorf("unknown executor strategy: %s", executor)
	}

	excludes := buildExcludes(cfg.DefaultExcludes, excludePaths, excludePathGlobs, excludeFilenameGlobs)

	sink := newOutputSink(output)
	writer := datim.NewWriter(sink, datim.WithLineTerminator(sink.lineTerminator()))
	if err := writer.WriteHeader(); err != nil {
		return err
	}

	consumer := newDatimWriterConsumer(writer)

	prog := newProgressListener(cmd.ErrOrStderr())
	gen := generator.New(generator.Config{
		Excludes: excludes,
		Listener: prog,
		Consumer: consumer,
		Logger:   logger.Default,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", root, err)
		}

		if err := writer.WriteBasePath(absRoot); err != nil {
			return err
		}

		if _, err := gen.ProduceImprint(ctx, absRoot); err != nil {
			gen.Shutdown()
			return fmt.Errorf("generate imprint for %s: %w", absRoot, err)
		}
	}

	if err := gen.Shutdown(); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	logger.Info("generated imprint", "roots", len(roots), "lines", consumer.lineNumber, "executor", executor)
	fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderHeader(fmt.Sprintf(" Imprinted %d path(s) ", consumer.lineNumber)))

	return sink.flush()
}
