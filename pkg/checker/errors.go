package checker

import cerr "github.com/anvilfs/datim/pkg/common/err"

const pkg = "checker"

// Error codes the checker can surface, layered on the shared error
// package's generic codes.
const CodeIo = "IO"

func errIo(op, path string, cause error) error {
	return cerr.New(pkg, CodeIo, op, "path: "+path, cause)
}

// IsIo reports whether err is an Io checker error.
func IsIo(err error) bool { return cerr.IsCode(err, CodeIo) }
