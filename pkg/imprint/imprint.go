// Package imprint defines the Imprint value: the immutable record of a
// single path's filename, modification time, and content identity, plus the
// composite fingerprint that folds a directory's children into its parent.
package imprint

import (
	"encoding/binary"
	"path/filepath"
	"sort"
	"time"

	cerr "github.com/anvilfs/datim/pkg/common/err"
	"github.com/anvilfs/datim/pkg/fingerprint"
)

const pkg = "imprint"

// Kind distinguishes a file imprint from a directory imprint.
type Kind int

const (
	File Kind = iota
	Directory
)

// Imprint is an immutable snapshot of a single filesystem path. It is never
// mutated after construction; the generator emits each one exactly once.
type Imprint struct {
	kind              Kind
	path              string
	contentModifiedAt time.Time
	contentFingerprint fingerprint.Hash
	fingerprint       fingerprint.Hash
	childrenFingerprint fingerprint.Hash
}

// Path returns the absolute, case-preserved path this imprint was taken of.
func (i Imprint) Path() string { return i.path }

// ContentModifiedAt returns the modification timestamp captured at the time
// the imprint was produced. Full platform precision is retained here; the
// composite fingerprint above is computed from a millisecond-truncated copy.
func (i Imprint) ContentModifiedAt() time.Time { return i.contentModifiedAt }

// ContentFingerprint returns the content hash: raw bytes for a file, the
// folded hash of children's content fingerprints for a directory.
func (i Imprint) ContentFingerprint() fingerprint.Hash { return i.contentFingerprint }

// Fingerprint returns the composite fingerprint: filename-hash, mtime-ms,
// content fingerprint, and (for directories)
// children fingerprint, folded through one digest in that order.
func (i Imprint) Fingerprint() fingerprint.Hash { return i.fingerprint }

// ChildrenFingerprint returns the folded hash of children's composite
// fingerprints. It is the all-zero Hash for files, and fingerprint.Empty
// for a directory with no children.
func (i Imprint) ChildrenFingerprint() fingerprint.Hash { return i.childrenFingerprint }

// IsDirectory reports whether this imprint was taken of a directory.
func (i Imprint) IsDirectory() bool { return i.kind == Directory }

// Miniprint returns the first 8 hex characters of the composite fingerprint.
func (i Imprint) Miniprint() string { return i.fingerprint.Miniprint() }

// Reconstruct rebuilds an Imprint verbatim from already-known field values,
// without recomputing the composite fingerprint. The codec parser uses this
// to reconstruct imprints exactly as serialized, and the checker uses it to
// present a recorded imprint for comparison against a live path.
func Reconstruct(path string, mtime time.Time, contentFP, compositeFP fingerprint.Hash, directory bool) Imprint {
	kind := File
	if directory {
		kind = Directory
	}
	return Imprint{
		kind:               kind,
		path:               path,
		contentModifiedAt:  mtime,
		contentFingerprint: contentFP,
		fingerprint:        compositeFP,
	}
}

// ForFile constructs the imprint of a regular file. contentFP is the hash of
// the file's bytes, already computed by the caller (typically via
// fingerprint.OfStream).
func ForFile(path string, mtime time.Time, contentFP fingerprint.Hash) (Imprint, error) {
	canon, err := canonicalize(path)
	if err != nil {
		return Imprint{}, err
	}
	if canon == "" {
		return Imprint{}, cerr.New(pkg, cerr.CodeInvalidInput, "ForFile", "path must have a filename", nil)
	}

	composite := composeFingerprint(canon, mtime, contentFP, fingerprint.Hash{}, false)

	return Imprint{
		kind:               File,
		path:               path,
		contentModifiedAt:  mtime,
		contentFingerprint: contentFP,
		fingerprint:        composite,
	}, nil
}

// ForDirectory constructs the imprint of a directory from its already-folded
// children aggregates. Both contentFP and childrenFP must be supplied; pass
// fingerprint.Empty for a directory with no children.
func ForDirectory(path string, mtime time.Time, contentFP, childrenFP fingerprint.Hash) (Imprint, error) {
	canon, err := canonicalize(path)
	if err != nil {
		return Imprint{}, err
	}

	composite := composeFingerprint(canon, mtime, contentFP, childrenFP, true)

	return Imprint{
		kind:                Directory,
		path:                path,
		contentModifiedAt:   mtime,
		contentFingerprint:  contentFP,
		fingerprint:         composite,
		childrenFingerprint: childrenFP,
	}, nil
}

// canonicalize returns the final path component (the "filename" contribution
// to the composite hash), or "" if path has none (e.g. a filesystem root
// such as "/" or "C:\").
func canonicalize(path string) (string, error) {
	if path == "" {
		return "", cerr.New(pkg, cerr.CodeInvalidInput, "canonicalize", "path must not be empty", nil)
	}
	clean := filepath.Clean(path)
	if clean == filepath.Dir(clean) {
		// clean is its own parent: a filesystem root such as "/" or "C:\".
		return "", nil
	}
	base := filepath.Base(clean)
	if base == "." {
		return "", nil
	}
	return base, nil
}

// composeFingerprint folds filename, mtime-ms, content fingerprint, and
// (directories only) children fingerprint into a single SHA-256 digest, in
// that order.
func composeFingerprint(filename string, mtime time.Time, contentFP, childrenFP fingerprint.Hash, directory bool) fingerprint.Hash {
	d := fingerprint.NewDigest()

	if filename != "" {
		d.UpdateHash(fingerprint.OfString(filename))
	}

	var mtimeBytes [8]byte
	binary.BigEndian.PutUint64(mtimeBytes[:], uint64(TruncateToMillis(mtime).UnixMilli()))
	d.Update(mtimeBytes[:])

	d.UpdateHash(contentFP)

	if directory {
		d.UpdateHash(childrenFP)
	}

	return d.Finalize()
}

// TruncateToMillis truncates t to millisecond precision in UTC, the
// precision at which modification times feed the composite fingerprint
// regardless of the precision serialized into a .datim file.
func TruncateToMillis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FoldContentFingerprints folds an already name-sorted sequence of child
// content fingerprints into a single directory content fingerprint.
func FoldContentFingerprints(children []fingerprint.Hash) fingerprint.Hash {
	return fold(children)
}

// FoldCompositeFingerprints folds an already name-sorted sequence of child
// composite fingerprints into a single children fingerprint.
func FoldCompositeFingerprints(children []fingerprint.Hash) fingerprint.Hash {
	return fold(children)
}

func fold(hashes []fingerprint.Hash) fingerprint.Hash {
	if len(hashes) == 0 {
		return fingerprint.Empty
	}
	d := fingerprint.NewDigest()
	for _, h := range hashes {
		d.UpdateHash(h)
	}
	return d.Finalize()
}

// Child pairs a filename with the two fingerprints a directory needs to fold
// its children's contribution. SortChildren orders a slice of these
// lexicographically by Name, the ordering the composite hash depends on.
type Child struct {
	Name                string
	ContentFingerprint  fingerprint.Hash
	CompositeFingerprint fingerprint.Hash
}

// SortChildren orders children lexicographically by final path component,
// the ordering the folded fingerprints depend on.
func SortChildren(children []Child) {
	sort.Slice(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})
}
