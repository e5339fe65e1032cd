package generator

import "github.com/bmatcuk/doublestar/v4"

// ExcludeSet is an immutable, post-construction set of exclusion rules
// applied to descendants of a walk (never to the root itself): literal
// canonical path matches, full-path globs, and filename-only globs matched
// against a child's final path component.
type ExcludeSet struct {
	paths          map[string]struct{}
	pathGlobs      []string
	filenameGlobs  []string
}

// ExcludeOption configures an ExcludeSet at construction.
type ExcludeOption func(*ExcludeSet)

// ExcludePath adds an exact canonical path to exclude.
func ExcludePath(path string) ExcludeOption {
	return func(e *ExcludeSet) { e.paths[path] = struct{}{} }
}

// ExcludePathGlob adds a doublestar glob matched against a descendant's
// full canonical path.
func ExcludePathGlob(glob string) ExcludeOption {
	return func(e *ExcludeSet) { e.pathGlobs = append(e.pathGlobs, glob) }
}

// ExcludeFilenameGlob adds a doublestar glob matched against only a
// descendant's final path component.
func ExcludeFilenameGlob(glob string) ExcludeOption {
	return func(e *ExcludeSet) { e.filenameGlobs = append(e.filenameGlobs, glob) }
}

// NewExcludeSet builds an immutable exclusion set from the given options.
func NewExcludeSet(opts ...ExcludeOption) *ExcludeSet {
	e := &ExcludeSet{paths: make(map[string]struct{})}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Matches reports whether the descendant at fullPath (final component
// filename) should be skipped.
func (e *ExcludeSet) Matches(fullPath, filename string) bool {
	if e == nil {
		return false
	}
	if _, ok := e.paths[fullPath]; ok {
		return true
	}
	for _, g := range e.pathGlobs {
		if ok, _ := doublestar.Match(g, fullPath); ok {
			return true
		}
	}
	for _, g := range e.filenameGlobs {
		if ok, _ := doublestar.Match(g, filename); ok {
			return true
		}
	}
	return false
}
