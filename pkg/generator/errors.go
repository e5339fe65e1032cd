package generator

import cerr "github.com/anvilfs/datim/pkg/common/err"

const pkg = "generator"

// Error codes the generator can surface, layered on the shared error
// package's generic codes.
const (
	CodeIo              = "IO"
	CodeUnsupportedPath = "UNSUPPORTED_PATH"
	CodeInvalidPath     = "INVALID_PATH"
	CodeConsumerError   = "CONSUMER_ERROR"
)

func errIo(op, path string, cause error) error {
	return cerr.New(pkg, CodeIo, op, "path: "+path, cause)
}

func errUnsupportedPath(op, path string) error {
	return cerr.New(pkg, CodeUnsupportedPath, op, "neither a regular file nor a directory: "+path, nil)
}

func errInvalidPath(op, message string) error {
	return cerr.New(pkg, CodeInvalidPath, op, message, nil)
}

func errConsumer(op string, cause error) error {
	return cerr.New(pkg, CodeConsumerError, op, "record consumer failed", cause)
}

// IsIo reports whether err is an Io generator error.
func IsIo(err error) bool { return cerr.IsCode(err, CodeIo) }

// IsUnsupportedPath reports whether err is an UnsupportedPath generator error.
func IsUnsupportedPath(err error) bool { return cerr.IsCode(err, CodeUnsupportedPath) }

// IsConsumerError reports whether err is a latched ConsumerError.
func IsConsumerError(err error) bool { return cerr.IsCode(err, CodeConsumerError) }
