package frames

import (
	"net/url"
	"path"
	"strings"
)

// NormalizePath converts a remote path to forward slashes and drops any
// trailing separator. Backslash paths from station hosts stop here.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// RelativePath strips root from fullPath. Both sides are normalized first and
// the prefix comparison ignores case, as station hosts run Windows.
func RelativePath(fullPath, root string) (string, bool) {
	full := NormalizePath(fullPath)
	base := NormalizePath(root)
	switch base {
	case "":
		return "", false
	case "/":
		rel := strings.TrimPrefix(full, "/")
		return rel, rel != "" && strings.HasPrefix(full, "/")
	}
	if len(full) <= len(base)+1 || full[len(base)] != '/' {
		return "", false
	}
	if !strings.EqualFold(full[:len(base)], base) {
		return "", false
	}
	return full[len(base)+1:], true
}

// tailPath keeps the last n segments of a normalized path.
func tailPath(p string, n int) string {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if len(segments) > n {
		segments = segments[len(segments)-n:]
	}
	return strings.Join(segments, "/")
}

func baseName(p string) string {
	return path.Base(NormalizePath(p))
}

func joinURL(base, stationName, relative string) string {
	segments := strings.Split(relative, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(stationName) + "/" + strings.Join(segments, "/")
}
