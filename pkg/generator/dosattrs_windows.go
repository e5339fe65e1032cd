//go:build windows

package generator

import (
	"golang.org/x/sys/windows"
)

// isDOSHiddenSystem reports whether path carries both the DOS hidden and
// system file attributes, the marker used to silently skip entries such as
// "System Volume Information" and "$RECYCLE.BIN" on Windows volumes.
func isDOSHiddenSystem(path string) bool {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(ptr)
	if err != nil {
		return false
	}
	const hiddenSystem = windows.FILE_ATTRIBUTE_HIDDEN | windows.FILE_ATTRIBUTE_SYSTEM
	return attrs&hiddenSystem == hiddenSystem
}
