package bridge

import (
	"fmt"

	"github.com/gobwas/glob"
)

// DefaultDeniedPatterns blocks the argument shapes that must never
// reach a registered command, regardless of which command it is.
var DefaultDeniedPatterns = []string{"--unsafe*"}

// PatternMatcher matches command arguments against compiled deny
// globs.
type PatternMatcher struct {
	denied []compiledPattern
}

type compiledPattern struct {
	source string
	glob   glob.Glob
}

// NewPatternMatcher compiles the given glob patterns. An invalid
// pattern is a configuration error and fails construction.
func NewPatternMatcher(denied []string) (*PatternMatcher, error) {
	matcher := &PatternMatcher{}
	for _, pattern := range denied {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern %q: %w", pattern, err)
		}
		matcher.denied = append(matcher.denied, compiledPattern{source: pattern, glob: compiled})
	}
	return matcher, nil
}

// Denies returns the first pattern the argument matches, or the empty
// string when the argument is allowed.
func (m *PatternMatcher) Denies(arg string) string {
	for _, pattern := range m.denied {
		if pattern.glob.Match(arg) {
			return pattern.source
		}
	}
	return ""
}
