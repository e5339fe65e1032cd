//go:build !windows

package generator

// isDOSHiddenSystem always reports false on platforms that do not expose
// DOS file attributes.
func isDOSHiddenSystem(path string) bool {
	return false
}
