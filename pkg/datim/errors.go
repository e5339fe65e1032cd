package datim

import cerr "github.com/anvilfs/datim/pkg/common/err"

const pkg = "datim"

// Error codes specific to the .datim codec, layered on top of the shared
// error package's generic codes.
const (
	CodeInvalidPath     = "INVALID_PATH"
	CodeBadHeader       = "BAD_HEADER"
	CodeBadRecord       = "BAD_RECORD"
	CodeMissingBasePath = "MISSING_BASE_PATH"
)

func errInvalidPath(op, message string) error {
	return cerr.New(pkg, CodeInvalidPath, op, message, nil)
}

func errBadHeader(op, message string) error {
	return cerr.New(pkg, CodeBadHeader, op, message, nil)
}

func errBadRecord(op, message string) error {
	return cerr.New(pkg, CodeBadRecord, op, message, nil)
}

func errMissingBasePath(op, message string) error {
	return cerr.New(pkg, CodeMissingBasePath, op, message, nil)
}

// IsInvalidPath reports whether err is an InvalidPath codec error.
func IsInvalidPath(err error) bool { return cerr.IsCode(err, CodeInvalidPath) }

// IsBadHeader reports whether err is a BadHeader codec error.
func IsBadHeader(err error) bool { return cerr.IsCode(err, CodeBadHeader) }

// IsBadRecord reports whether err is a BadRecord codec error.
func IsBadRecord(err error) bool { return cerr.IsCode(err, CodeBadRecord) }

// IsMissingBasePath reports whether err is a MissingBasePath codec error.
func IsMissingBasePath(err error) bool { return cerr.IsCode(err, CodeMissingBasePath) }
