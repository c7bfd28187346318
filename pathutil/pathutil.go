// Package pathutil normalizes include-search and #include-target paths to
// a canonical, slash-separated form, independent of the host OS.
package pathutil

import (
	"strings"
)

// SimplifyPath collapses "." and ".." segments and repeated slashes in p,
// always returning a forward-slash path regardless of the separators p was
// given in. A leading ".." that cannot be collapsed against anything is
// left in place; the result never claims a shallower ancestor than the
// input actually names. SimplifyPath is idempotent:
// SimplifyPath(SimplifyPath(p)) == SimplifyPath(p).
func SimplifyPath(p string) string {
	if p == "" {
		return p
	}
	slashed := strings.ReplaceAll(p, `\`, "/")
	absolute := strings.HasPrefix(slashed, "/")

	var out []string
	for _, seg := range strings.Split(slashed, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if n := len(out); n > 0 && out[n-1] != ".." {
				out = out[:n-1]
				continue
			}
			if absolute {
				continue
			}
			out = append(out, seg)
		default:
			out = append(out, seg)
		}
	}

	result := strings.Join(out, "/")
	if absolute {
		result = "/" + result
	}
	if result == "" {
		if absolute {
			return "/"
		}
		return "."
	}
	return result
}

// ConvertCygwinToWindowsPath rewrites a Cygwin-style absolute path
// ("/cygdrive/c/foo/bar" or "/c/foo/bar") into its Windows drive-letter,
// backslash-separated equivalent ("C:\foo\bar"). Any other path has its
// forward slashes replaced with backslashes but is otherwise left alone.
func ConvertCygwinToWindowsPath(p string) string {
	const prefix = "/cygdrive/"
	if strings.HasPrefix(p, prefix) {
		rest := p[len(prefix):]
		if drive, tail, ok := splitDriveSegment(rest); ok {
			return drive + ":" + strings.ReplaceAll(tail, "/", `\`)
		}
	}
	if len(p) >= 2 && p[0] == '/' && isDriveLetter(p[1]) && (len(p) == 2 || p[2] == '/') {
		return strings.ToUpper(p[1:2]) + ":" + strings.ReplaceAll(p[2:], "/", `\`)
	}
	return strings.ReplaceAll(p, "/", `\`)
}

func splitDriveSegment(rest string) (drive, tail string, ok bool) {
	if len(rest) == 0 || !isDriveLetter(rest[0]) {
		return "", "", false
	}
	if len(rest) > 1 && rest[1] != '/' {
		return "", "", false
	}
	return strings.ToUpper(rest[0:1]), rest[1:], true
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
