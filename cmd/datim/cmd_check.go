package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/anvilfs/datim/cmd/datim/internal/ui"
	"github.com/anvilfs/datim/pkg/checker"
	"github.com/anvilfs/datim/pkg/common/logger"
	"github.com/anvilfs/datim/pkg/datim"
	"github.com/anvilfs/datim/pkg/engine"
	"github.com/anvilfs/datim/pkg/imprint"
	"github.com/anvilfs/datim/pkg/listener"
)

func newCheckCmd() *cobra.Command {
	var (
		imprintPath    string
		imprintCharset string
		output         string
		outputCharset  string
	)

	cmd := &cobra.Command{
		Use:   "check <data>",
		Short: "Compare a live path against a recorded .datim imprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], imprintPath, imprintCharset, output, outputCharset)
		},
	}

	cmd.Flags().StringVar(&imprintPath, "imprint", "", "Path to the .datim file to check against")
	cmd.Flags().StringVar(&imprintCharset, "imprint-charset", "utf-8", "Charset of the imprint file")
	cmd.Flags().StringVar(&output, "output", "", "Write the mismatch report to this file instead of stdout")
	cmd.Flags().StringVar(&outputCharset, "output-charset", "utf-8", "Charset for the output file")
	cmd.MarkFlagRequired("imprint")

	return cmd
}

func runCheck(cmd *cobra.Command, dataPath, imprintPath, imprintCharset, output, outputCharset string) error {
	if strings.ToLower(imprintCharset) != "utf-8" {
		return fmt.Errorf("unsupported imprint charset: %s", imprintCharset)
	}
	if outputCharset != "" && strings.ToLower(outputCharset) != "utf-8" {
		return fmt.Errorf("unsupported output charset: %s", outputCharset)
	}

	f, err := os.Open(imprintPath)
	if err != nil {
		return fmt.Errorf("open imprint file: %w", err)
	}
	defer f.Close()

	reader, err := datim.NewReader(f)
	if err != nil {
		return fmt.Errorf("read imprint header: %w", err)
	}

	var dest io.Writer = cmd.OutOrStdout()
	sink := newOutputSink(output)
	if output != "" {
		dest = sink
	}

	prog := newProgressListener(cmd.ErrOrStderr())
	c := checker.New(checker.Config{Listener: prog, Logger: logger.Default})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results, err := checkAll(ctx, c, reader, dataPath)
	if err != nil {
		return err
	}

	mismatchCount := renderResults(dest, results)

	logger.Info("check complete", "paths", len(results), "mismatches", mismatchCount)

	if output != "" {
		if err := sink.flush(); err != nil {
			return err
		}
	}

	if mismatchCount > 0 {
		return fmt.Errorf("%s mismatch(es) found", humanize.Comma(int64(mismatchCount)))
	}
	return nil
}

// pendingCheck is one rebased path awaiting comparison against its
// recorded imprint.
type pendingCheck struct {
	livePath string
	recorded imprint.Imprint
}

// checkAll reads every imprint row out of reader up front (rebasing each
// recorded path from the stream's current base path at read time, since
// base-path rows are consumed sequentially), then compares the rebased
// paths against the live filesystem concurrently on a bounded compute
// pool, mirroring the engine's checker pool from spec.md §5.
func checkAll(ctx context.Context, c *checker.Checker, reader *datim.Reader, dataPath string) ([]listener.Result, error) {
	var pending []pendingCheck

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read imprint record: %w", err)
		}

		base, _ := reader.CurrentBasePath()
		livePath, err := datim.Rebase(base, rec.Path, dataPath)
		if err != nil {
			return nil, fmt.Errorf("rebase %s: %w", rec.Path, err)
		}

		recorded := imprint.Reconstruct(rec.Path, rec.ContentModifiedAt, rec.ContentFingerprint, rec.Fingerprint, false)
		pending = append(pending, pendingCheck{livePath: livePath, recorded: recorded})
	}

	pool := engine.NewWorkerPool[pendingCheck, listener.Result]()
	return pool.Process(ctx, pending, func(ctx context.Context, p pendingCheck) (listener.Result, error) {
		result, err := c.CheckPath(ctx, p.livePath, p.recorded)
		if err != nil {
			return listener.Result{}, fmt.Errorf("check %s: %w", p.livePath, err)
		}
		return result, nil
	})
}

// renderResults prints a tabular summary of mismatching paths and returns
// how many were not a full match.
func renderResults(w io.Writer, results []listener.Result) int {
	fmt.Fprintln(w, ui.RenderHeader(fmt.Sprintf(" Checked %s path(s) ", humanize.Comma(int64(len(results))))))
	fmt.Fprintln(w, ui.RenderSection("Mismatches"))

	table := tablewriter.NewWriter(w)
	table.Header("Miniprint", "Path", "Status", "Mismatches")

	mismatchCount := 0
	for _, r := range results {
		if r.IsMatch() {
			continue
		}
		mismatchCount++

		status := ui.MismatchStyle.Render("mismatch")
		if r.Kind == listener.Missing {
			status = ui.MissingStyle.Render("missing")
		}

		var kinds []string
		for _, k := range r.Mismatches {
			kinds = append(kinds, k.String())
		}

		table.Append(ui.MiniprintStyle.Render(r.Recorded.Miniprint()), ui.PathStyle.Render(r.Path), status, strings.Join(kinds, ", "))
	}

	if mismatchCount > 0 {
		table.Render()
	} else {
		fmt.Fprintln(w, ui.MatchStyle.Render(fmt.Sprintf("  %s all paths match", ui.IconMatch)))
	}

	return mismatchCount
}
