package datim

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/anvilfs/datim/pkg/fingerprint"
	"github.com/anvilfs/datim/pkg/imprint"
)

func mustForFile(t *testing.T, path string, mtime time.Time, contentFP fingerprint.Hash) imprint.Imprint {
	t.Helper()
	im, err := imprint.ForFile(path, mtime, contentFP)
	if err != nil {
		t.Fatalf("ForFile(%q) error = %v", path, err)
	}
	return im
}

// S1 golden serialization: a single imprint row for /foo.bar at line number
// 0x0123456789ABCDEF.
func TestWriter_S1GoldenRow(t *testing.T) {
	mtime, err := time.Parse(time.RFC3339Nano, "2022-05-22T20:48:16.7512146Z")
	if err != nil {
		t.Fatalf("parse mtime: %v", err)
	}
	contentFP := fingerprint.Of([]byte("foobar"))
	im := mustForFile(t, "/foo.bar", mtime, contentFP)

	var buf strings.Builder
	w := NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	const lineNumber uint64 = 0x0123456789ABCDEF
	if err := w.WriteImprint(lineNumber, im); err != nil {
		t.Fatalf("WriteImprint() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines: %q", len(lines), buf.String())
	}

	gotRow := lines[1]
	wantRow := strings.Join([]string{
		"81985529216486895",
		"c56f2ad0",
		"/foo.bar",
		"2022-05-22T20:48:16.7512146Z",
		contentFP.String(),
		im.Fingerprint().String(),
	}, "\t")

	if gotRow != wantRow {
		t.Errorf("serialized row =\n%q\nwant\n%q", gotRow, wantRow)
	}
}

func TestWriter_RejectsRecordBeforeHeader(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)
	mtime := time.Now()
	im := mustForFile(t, "/a.txt", mtime, fingerprint.Of([]byte("a")))
	if err := w.WriteImprint(1, im); err == nil {
		t.Error("WriteImprint before WriteHeader expected error, got nil")
	}
}

func TestWriter_RejectsTabInPath(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)
	_ = w.WriteHeader()
	mtime := time.Now()
	// ForFile would reject "/a\tb.txt" at the filename level in some
	// implementations, but the codec must reject it regardless.
	im, err := imprint.ForFile("/a\tb.txt", mtime, fingerprint.Of([]byte("a")))
	if err != nil {
		t.Skip("imprint construction already rejects tab-containing paths")
	}
	if err := w.WriteImprint(1, im); err == nil {
		t.Error("WriteImprint with tab in path expected InvalidPath, got nil")
	} else if !IsInvalidPath(err) {
		t.Errorf("expected InvalidPath error, got %v", err)
	}
}

func TestRoundTrip_HeaderBasePathAndImprint(t *testing.T) {
	mtime, _ := time.Parse(time.RFC3339Nano, "2022-05-22T20:48:16.7512146Z")
	contentFP := fingerprint.Of([]byte("foobar"))
	im := mustForFile(t, "/old/base/foo.bar", mtime, contentFP)

	var buf strings.Builder
	w := NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	if err := w.WriteBasePath("/old/base"); err != nil {
		t.Fatalf("WriteBasePath() error = %v", err)
	}
	if err := w.WriteImprint(1, im); err != nil {
		t.Fatalf("WriteImprint() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	r, err := NewReader(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	base, have := r.CurrentBasePath()
	if !have || base != "/old/base" {
		t.Errorf("CurrentBasePath() = (%q, %v), want (/old/base, true)", base, have)
	}

	if rec.Path != im.Path() {
		t.Errorf("Path = %q, want %q", rec.Path, im.Path())
	}
	if rec.Fingerprint != im.Fingerprint() {
		t.Errorf("Fingerprint = %v, want %v", rec.Fingerprint, im.Fingerprint())
	}
	if rec.ContentFingerprint != im.ContentFingerprint() {
		t.Errorf("ContentFingerprint = %v, want %v", rec.ContentFingerprint, im.ContentFingerprint())
	}
	if !rec.ContentModifiedAt.Equal(im.ContentModifiedAt()) {
		t.Errorf("ContentModifiedAt = %v, want %v", rec.ContentModifiedAt, im.ContentModifiedAt())
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() after last record error = %v, want io.EOF", err)
	}
}

func TestReader_MissingHeaderField(t *testing.T) {
	data := "#\tminiprint\tpath\tcontent-modifiedAt\tcontent-fingerprint\n" // fingerprint column missing
	if _, err := NewReader(strings.NewReader(data)); err == nil {
		t.Error("expected BadHeader error, got nil")
	} else if !IsBadHeader(err) {
		t.Errorf("expected BadHeader error, got %v", err)
	}
}

func TestReader_UnknownHeaderField(t *testing.T) {
	data := strings.Join(append(append([]string{}, HeaderFields...), "bogus"), "\t") + "\n"
	if _, err := NewReader(strings.NewReader(data)); err == nil {
		t.Error("expected BadHeader error, got nil")
	} else if !IsBadHeader(err) {
		t.Errorf("expected BadHeader error, got %v", err)
	}
}

func TestReader_BadRecordWrongFieldCount(t *testing.T) {
	header := strings.Join(HeaderFields, "\t") + "\n"
	badRow := "1\tminiprin\t/a.txt\n"
	r, err := NewReader(strings.NewReader(header + badRow))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if _, err := r.Next(); err == nil {
		t.Error("expected BadRecord error, got nil")
	} else if !IsBadRecord(err) {
		t.Errorf("expected BadRecord error, got %v", err)
	}
}

func TestRebase(t *testing.T) {
	got, err := Rebase("/old/base", "/old/base/sub/file", "/new/root")
	if err != nil {
		t.Fatalf("Rebase() error = %v", err)
	}
	want := "/new/root/sub/file"
	if got != want {
		t.Errorf("Rebase() = %q, want %q", got, want)
	}
}

func TestRebase_MissingBasePath(t *testing.T) {
	if _, err := Rebase("", "/a/b", "/c"); err == nil {
		t.Error("expected MissingBasePath error, got nil")
	} else if !IsMissingBasePath(err) {
		t.Errorf("expected MissingBasePath error, got %v", err)
	}
}
