// Package datim implements the bit-exact .datim tab-delimited file format:
// a header row naming the fields, optional base-path rows that re-anchor
// subsequent imprint paths, and imprint rows carrying one recorded Imprint
// each.
package datim

import (
	"time"

	"github.com/anvilfs/datim/pkg/fingerprint"
	"github.com/anvilfs/datim/pkg/imprint"
)

// Field names, in the order the header authoritatively declares per file.
// Implementations must read the header and map by name, not by position.
const (
	FieldNumber            = "#"
	FieldMiniprint          = "miniprint"
	FieldPath               = "path"
	FieldContentModifiedAt  = "content-modifiedAt"
	FieldContentFingerprint = "content-fingerprint"
	FieldFingerprint        = "fingerprint"
)

// HeaderFields is the canonical field order this package writes. A parsed
// file's header may list the same names in a different order; readers must
// honor whatever order the file declares.
var HeaderFields = []string{
	FieldNumber,
	FieldMiniprint,
	FieldPath,
	FieldContentModifiedAt,
	FieldContentFingerprint,
	FieldFingerprint,
}

// basePathSentinel is the literal value of the "#" column on a base-path
// row, distinguishing it from the decimal line number of an imprint row.
const basePathSentinel = "/"

// Record is one decoded line of a .datim file: either a base-path record
// (IsBasePath true, only BasePath set) or an imprint record (LineNumber,
// Path, ContentModifiedAt, ContentFingerprint and Fingerprint set).
type Record struct {
	// IsBasePath is true for a base-path row; false for an imprint row.
	IsBasePath bool

	// BasePath holds the absolute directory path of a base-path row.
	BasePath string

	// LineNumber is the decimal line number of an imprint row, monotonic
	// and starting at 1 per file, not reused across base paths.
	LineNumber uint64

	// Path, ContentModifiedAt, ContentFingerprint, and Fingerprint mirror
	// an imprint.Imprint's fields for an imprint row.
	Path                string
	ContentModifiedAt   time.Time
	ContentFingerprint  fingerprint.Hash
	Fingerprint         fingerprint.Hash
}

// NewBasePathRecord constructs a base-path record anchoring subsequent
// imprint paths to base.
func NewBasePathRecord(base string) Record {
	return Record{IsBasePath: true, BasePath: base}
}

// NewImprintRecord constructs an imprint record from an Imprint and the
// line number assigned to it by the writer.
func NewImprintRecord(lineNumber uint64, im imprint.Imprint) Record {
	return Record{
		LineNumber:         lineNumber,
		Path:               im.Path(),
		ContentModifiedAt:  im.ContentModifiedAt(),
		ContentFingerprint: im.ContentFingerprint(),
		Fingerprint:        im.Fingerprint(),
	}
}

// Miniprint returns the first 8 hex characters of the record's composite
// fingerprint.
func (r Record) Miniprint() string {
	return r.Fingerprint.Miniprint()
}
