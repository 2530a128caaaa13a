package fs

import (
	"path/filepath"
	"strings"
)

// ExcludeMatcher checks directory and file names against a set of glob-style
// patterns. Patterns match against names, not paths: excluding "build"
// prunes every directory called build wherever it sits in the tree.
type ExcludeMatcher struct {
	patterns []string
}

// NewExcludeMatcher creates an ExcludeMatcher from raw pattern strings.
// Blank patterns are skipped.
func NewExcludeMatcher(rawPatterns []string) *ExcludeMatcher {
	var patterns []string
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		patterns = append(patterns, raw)
	}
	return &ExcludeMatcher{patterns: patterns}
}

// MatchName reports whether a directory or file name matches any pattern.
func (m *ExcludeMatcher) MatchName(name string) bool {
	for _, pattern := range m.patterns {
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			// Bad pattern — skip rather than crash.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
