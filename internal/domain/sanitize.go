package domain

import "strings"

// Filesystem limits. MaxPathLength mirrors the Windows path cap since exported
// trees must remain portable to Windows shares.
const (
	MaxFilenameLength = 255
	MaxPathLength     = 260
	MaxFolderDepth    = 10
)

// invalidPathChars are characters rejected in any path component.
const invalidPathChars = `<>:"|?*`

// reservedNames are Windows device names that cannot be used as file or
// folder names, with or without an extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// HasInvalidChars reports whether s contains a character that is illegal in
// portable file or folder names.
func HasInvalidChars(s string) bool {
	return strings.ContainsAny(s, invalidPathChars)
}

// IsReservedName reports whether the name (ignoring any extension and case)
// is an OS-reserved device name.
func IsReservedName(name string) bool {
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	_, ok := reservedNames[strings.ToUpper(base)]
	return ok
}

// SafeFileName rewrites a candidate file or folder name so it is legal on all
// supported filesystems: invalid characters become underscores, reserved
// device names gain a leading underscore, and overlong names are truncated
// with the extension preserved.
func SafeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(invalidPathChars, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	safe := b.String()

	if IsReservedName(safe) {
		safe = "_" + safe
	}

	if len(safe) > MaxFilenameLength {
		safe = TruncateFilename(safe, MaxFilenameLength)
	}
	return safe
}

// TruncateFilename shortens name to at most max bytes, keeping the extension
// if one is present.
func TruncateFilename(name string, max int) string {
	if len(name) <= max {
		return name
	}
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return name[:max]
	}
	ext := name[dot:] // includes the dot
	keep := max - len(ext)
	if keep < 1 {
		return name[:max]
	}
	return name[:keep] + ext
}
