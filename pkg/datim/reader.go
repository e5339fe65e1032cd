package datim

import (
	"bufio"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anvilfs/datim/pkg/fingerprint"
)

// utf8BOM is the UTF-8 encoding of U+FEFF, optionally present at the start
// of a .datim file.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader parses a .datim stream lazily, one record at a time. Base-path
// records are consumed internally and update CurrentBasePath; callers see
// only imprint records from Next.
type Reader struct {
	scanner      *bufio.Scanner
	fieldIndex   map[string]int
	currentBase  string
	haveBase     bool
	lineNo       int
}

// NewReader reads and validates the header row of r, then returns a Reader
// positioned to yield imprint records via Next.
func NewReader(r io.Reader) (*Reader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	reader := &Reader{scanner: scanner}

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errBadHeader("NewReader", "empty file: no header row")
	}
	reader.lineNo++

	header := stripBOM(scanner.Text())
	fieldIndex, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	reader.fieldIndex = fieldIndex

	return reader, nil
}

func stripBOM(line string) string {
	if strings.HasPrefix(line, string(utf8BOM)) {
		return line[len(utf8BOM):]
	}
	// handle the case the bytes were already decoded as the rune U+FEFF
	if r, size := utf8.DecodeRuneInString(line); r == 0xFEFF {
		return line[size:]
	}
	return line
}

func parseHeader(line string) (map[string]int, error) {
	names := strings.Split(line, fieldDelimiter)
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	for _, required := range HeaderFields {
		if _, ok := index[required]; !ok {
			return nil, errBadHeader("parseHeader", "missing required field: "+required)
		}
	}
	for name := range index {
		known := false
		for _, required := range HeaderFields {
			if name == required {
				known = true
				break
			}
		}
		if !known {
			return nil, errBadHeader("parseHeader", "unknown field: "+name)
		}
	}

	return index, nil
}

// CurrentBasePath returns the base path most recently established by a
// base-path row, and whether any base-path row has been seen yet.
func (r *Reader) CurrentBasePath() (string, bool) {
	return r.currentBase, r.haveBase
}

// Next returns the next imprint record in the stream, transparently
// consuming and applying any base-path rows encountered along the way. It
// returns io.EOF when the stream is exhausted.
func (r *Reader) Next() (Record, error) {
	for {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return Record{}, err
			}
			return Record{}, io.EOF
		}
		r.lineNo++

		line := r.scanner.Text()
		if line == "" {
			continue
		}

		rec, isBase, err := r.parseLine(line)
		if err != nil {
			return Record{}, err
		}
		if isBase {
			r.currentBase = rec.BasePath
			r.haveBase = true
			continue
		}
		return rec, nil
	}
}

func (r *Reader) parseLine(line string) (rec Record, isBase bool, err error) {
	fields := strings.Split(line, fieldDelimiter)
	if len(fields) != len(HeaderFields) {
		return Record{}, false, errBadRecord("parseLine", "wrong field count")
	}

	field := func(name string) string {
		return fields[r.fieldIndex[name]]
	}

	number := field(FieldNumber)
	if number == basePathSentinel {
		return Record{IsBasePath: true, BasePath: field(FieldPath)}, true, nil
	}

	lineNumber, convErr := strconv.ParseUint(number, 10, 64)
	if convErr != nil {
		return Record{}, false, errBadRecord("parseLine", "number field is neither a base-path sentinel nor a decimal uint64")
	}

	contentModifiedAt, tsErr := time.Parse(time.RFC3339Nano, field(FieldContentModifiedAt))
	if tsErr != nil {
		return Record{}, false, errBadRecord("parseLine", "malformed content-modifiedAt timestamp")
	}

	contentFP, cfErr := fingerprint.ParseHash(field(FieldContentFingerprint))
	if cfErr != nil {
		return Record{}, false, errBadRecord("parseLine", "malformed content-fingerprint checksum")
	}

	fp, fErr := fingerprint.ParseHash(field(FieldFingerprint))
	if fErr != nil {
		return Record{}, false, errBadRecord("parseLine", "malformed fingerprint checksum")
	}

	return Record{
		LineNumber:         lineNumber,
		Path:               field(FieldPath),
		ContentModifiedAt:  contentModifiedAt,
		ContentFingerprint: contentFP,
		Fingerprint:        fp,
	}, false, nil
}

// Rebase re-anchors recordPath, recorded under basePath, to newRoot. It
// fails with MissingBasePath if basePath is empty (no base-path row has
// been seen) and the caller requested rebasing by calling this function.
func Rebase(basePath, recordPath, newRoot string) (string, error) {
	if basePath == "" {
		return "", errMissingBasePath("Rebase", "no base-path row seen before this imprint")
	}
	rel, err := filepath.Rel(basePath, recordPath)
	if err != nil {
		return "", errInvalidPath("Rebase", "recorded path is not under its base path: "+err.Error())
	}
	return filepath.Join(newRoot, rel), nil
}
