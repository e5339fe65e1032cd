package datim

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/anvilfs/datim/pkg/imprint"
)

// DefaultLineTerminator is used when writing to a file, per the package's
// format contract (LF regardless of host platform).
const DefaultLineTerminator = "\n"

const fieldDelimiter = "\t"

// Writer serializes Records to the .datim tab-delimited format. The zero
// value is not usable; construct with NewWriter.
type Writer struct {
	w             *bufio.Writer
	terminator    string
	headerWritten bool
}

// WriterOption configures a Writer at construction.
type WriterOption func(*Writer)

// WithLineTerminator overrides the line terminator applied after every
// record. Defaults to DefaultLineTerminator.
func WithLineTerminator(terminator string) WriterOption {
	return func(w *Writer) { w.terminator = terminator }
}

// NewWriter returns a Writer that serializes records to w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{
		w:          bufio.NewWriter(w),
		terminator: DefaultLineTerminator,
	}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// WriteHeader writes the field-name header row. It must be called before
// any other record and must be called exactly once.
func (w *Writer) WriteHeader() error {
	if w.headerWritten {
		return errInvalidPath("WriteHeader", "header already written")
	}
	if _, err := w.w.WriteString(strings.Join(HeaderFields, fieldDelimiter)); err != nil {
		return err
	}
	if err := w.writeTerminator(); err != nil {
		return err
	}
	w.headerWritten = true
	return nil
}

// WriteBasePath writes a base-path record anchoring subsequent imprint
// paths. Multiple base-path rows may be written; each supersedes the
// previous for readers replaying the stream.
func (w *Writer) WriteBasePath(path string) error {
	if err := w.requireHeader("WriteBasePath"); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}

	fields := []string{basePathSentinel, "", path, "", "", ""}
	return w.writeRow(fields)
}

// WriteImprint writes one imprint record with the given line number. Line
// numbers are assigned by the caller (typically the generator's emit pool,
// monotonically starting at 1 and not reused across base paths).
func (w *Writer) WriteImprint(lineNumber uint64, im imprint.Imprint) error {
	if err := w.requireHeader("WriteImprint"); err != nil {
		return err
	}
	if err := validatePath(im.Path()); err != nil {
		return err
	}

	fields := []string{
		strconv.FormatUint(lineNumber, 10),
		im.Miniprint(),
		im.Path(),
		formatTimestamp(im.ContentModifiedAt()),
		im.ContentFingerprint().String(),
		im.Fingerprint().String(),
	}
	return w.writeRow(fields)
}

// WriteRecord writes a pre-built Record, dispatching to WriteBasePath or an
// imprint row depending on its kind.
func (w *Writer) WriteRecord(r Record) error {
	if r.IsBasePath {
		return w.WriteBasePath(r.BasePath)
	}
	if err := w.requireHeader("WriteRecord"); err != nil {
		return err
	}
	if err := validatePath(r.Path); err != nil {
		return err
	}
	fields := []string{
		strconv.FormatUint(r.LineNumber, 10),
		r.Miniprint(),
		r.Path,
		formatTimestamp(r.ContentModifiedAt),
		r.ContentFingerprint.String(),
		r.Fingerprint.String(),
	}
	return w.writeRow(fields)
}

// Flush flushes any buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) requireHeader(op string) error {
	if !w.headerWritten {
		return errInvalidPath(op, "header must be written before any record")
	}
	return nil
}

func (w *Writer) writeRow(fields []string) error {
	if _, err := w.w.WriteString(strings.Join(fields, fieldDelimiter)); err != nil {
		return err
	}
	return w.writeTerminator()
}

func (w *Writer) writeTerminator() error {
	_, err := w.w.WriteString(w.terminator)
	return err
}

func validatePath(path string) error {
	if strings.Contains(path, fieldDelimiter) {
		return errInvalidPath("validatePath", "path must not contain a tab character")
	}
	return nil
}

// formatTimestamp renders t as an ISO-8601 UTC instant with whatever
// fractional-second precision time.Time carries, matching the platform
// precision the format's content-modifiedAt column expects.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
