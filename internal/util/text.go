package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Truncate shortens s to at most max runes, appending "..." when content was
// dropped. Safe on multi-byte text.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// TableCell flattens s into a single markdown table cell: newlines collapse
// to spaces, pipes are escaped, and the result is truncated to max runes.
func TableCell(s string, max int) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, max)
}

// TimestampedPath derives an artifact path under dir from prefix and t,
// e.g. benchmark_report_20060102_150405.md.
func TimestampedPath(dir, prefix, ext string, t time.Time) string {
	name := fmt.Sprintf("%s_%s%s", prefix, t.Format("20060102_150405"), ext)
	return filepath.Join(dir, name)
}

// IndexedPath inserts a 1-based index before path's extension, e.g.
// report.md becomes report_2.md. Used to fan one requested output path
// out across a workload suite.
func IndexedPath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), n, ext)
}
