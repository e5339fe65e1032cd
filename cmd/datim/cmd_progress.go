package main

import (
	"fmt"
	"io"

	"github.com/anvilfs/datim/cmd/datim/internal/ui"
	"github.com/anvilfs/datim/pkg/imprint"
	"github.com/anvilfs/datim/pkg/listener"
)

// progressListener prints skip and mismatch notifications to w as they
// arrive. It does no locking of its own: each notification is a single
// fmt.Fprintln call on w, so concurrent notifications are only kept apart
// as far as w itself serializes its writes.
type progressListener struct {
	w io.Writer
}

func newProgressListener(w io.Writer) *progressListener {
	return &progressListener{w: w}
}

func (p *progressListener) OnGenerateImprint(string) {}
func (p *progressListener) OnEnterDirectory(string)  {}
func (p *progressListener) BeforeHashFile(string)    {}
func (p *progressListener) AfterHashFile(string)     {}

func (p *progressListener) OnSkipUnreadablePath(path string) {
	fmt.Fprintln(p.w, ui.Yellow(fmt.Sprintf("  %s skipped (unreadable): %s", ui.IconMissing, path)))
}

func (p *progressListener) OnSkipExcludedPath(path string) {
	fmt.Fprintln(p.w, ui.Yellow(fmt.Sprintf("  %s skipped (excluded): %s", ui.IconMissing, path)))
}

func (p *progressListener) OnCheckPath(string, imprint.Imprint) {}
func (p *progressListener) BeforeCheckPath(string)               {}
func (p *progressListener) AfterCheckPath(string)                {}

func (p *progressListener) OnResultMismatch(result listener.Result) {
	switch result.Kind {
	case listener.Missing:
		fmt.Fprintln(p.w, ui.Red(fmt.Sprintf("  %s missing: %s", ui.IconMismatch, result.Path)))
	default:
		fmt.Fprintln(p.w, ui.Red(fmt.Sprintf("  %s mismatch: %s", ui.IconMismatch, result.Path)))
	}
}

var _ listener.Listener = (*progressListener)(nil)
