package matchers

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/arthur-debert/grouphash/pkg/errors"
	"github.com/arthur-debert/grouphash/pkg/event"
)

// Key identifies the event attribute a matcher tests. The set of keys is
// closed: unknown keys are rejected at config-load time, never at match
// time.
type Key string

// Supported matcher keys
const (
	KeyFamily   Key = "family"
	KeyType     Key = "type"
	KeyValue    Key = "value"
	KeyMessage  Key = "message"
	KeyLogger   Key = "logger"
	KeyLevel    Key = "level"
	KeyRelease  Key = "release"
	KeyApp      Key = "app"
	KeyPath     Key = "path"
	KeyFunction Key = "function"
	KeyModule   Key = "module"
	KeyPackage  Key = "package"
	KeyTag      Key = "tags"
)

// frameScoped lists the keys that test frame attributes rather than
// event attributes. All frame-scoped matchers of a rule must match the
// same frame.
var frameScoped = map[Key]bool{
	KeyApp:      true,
	KeyPath:     true,
	KeyFunction: true,
	KeyModule:   true,
	KeyPackage:  true,
}

// eventScoped lists keys resolved against the event itself
var eventScoped = map[Key]bool{
	KeyFamily:  true,
	KeyType:    true,
	KeyValue:   true,
	KeyMessage: true,
	KeyLogger:  true,
	KeyLevel:   true,
	KeyRelease: true,
	KeyTag:     true,
}

// Matcher is a single compiled predicate: one key, one glob pattern.
// Patterns are compiled once at rule-load time and reused across events,
// so matchers are safe for concurrent use.
type Matcher struct {
	key     Key
	tagName string // set only for tags.<name> matchers
	pattern string
	negated bool
	glob    glob.Glob
}

// New parses and compiles a matcher from its configuration form. The key
// may carry a leading "!" to negate the match, and "tags.<name>" selects a
// tag value. Unknown keys and unparsable patterns fail with a structured
// config error.
func New(key, pattern string) (*Matcher, error) {
	negated := strings.HasPrefix(key, "!")
	key = strings.TrimPrefix(key, "!")

	m := &Matcher{
		key:     Key(key),
		pattern: pattern,
		negated: negated,
	}

	if tagName, ok := strings.CutPrefix(key, "tags."); ok {
		if tagName == "" {
			return nil, errors.New(errors.ErrMatcherInvalid,
				"tag matcher requires a tag name, e.g. tags.server")
		}
		m.key = KeyTag
		m.tagName = tagName
	} else if !eventScoped[m.key] && !frameScoped[m.key] {
		return nil, errors.Newf(errors.ErrMatcherInvalid,
			"unknown matcher key %q", key)
	}

	// Path-like keys compare case-insensitively with normalized
	// separators; compile the pattern the same way the candidate values
	// are normalized
	globPattern := pattern
	if m.key == KeyPath || m.key == KeyPackage {
		globPattern = normalizePath(pattern)
	}

	compiled, err := glob.Compile(globPattern)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrMatcherInvalid,
			"invalid pattern %q for matcher key %q", pattern, key)
	}
	m.glob = compiled

	return m, nil
}

// Key returns the attribute key this matcher tests
func (m *Matcher) Key() Key {
	return m.key
}

// Pattern returns the raw glob pattern
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Negated reports whether the match result is inverted
func (m *Matcher) Negated() bool {
	return m.negated
}

// FrameScoped reports whether this matcher tests frame attributes.
// Frame-scoped matchers are grouped by the rule and evaluated per frame.
func (m *Matcher) FrameScoped() bool {
	return frameScoped[m.key]
}

// Matches evaluates an event-scoped matcher against the event. For keys
// resolved from the exception chain (type, value), the matcher matches if
// any exception in the chain matches. Missing attributes never match; a
// negated matcher consequently matches them.
func (m *Matcher) Matches(e *event.Event) bool {
	matched := false
	for _, candidate := range m.candidates(e) {
		if candidate != "" && m.glob.Match(candidate) {
			matched = true
			break
		}
	}
	if m.negated {
		return !matched
	}
	return matched
}

// MatchesFrame evaluates a frame-scoped matcher against a single frame
func (m *Matcher) MatchesFrame(f *event.Frame) bool {
	matched := false
	switch m.key {
	case KeyApp:
		matched = matchBool(m.pattern, f.InApp)
	case KeyPath:
		// Paths match case-insensitively with separators normalized, so
		// one pattern covers Windows and POSIX clients
		matched = f.Path != "" && m.glob.Match(normalizePath(f.Path))
	case KeyFunction:
		matched = f.Function != "" && m.glob.Match(f.Function)
	case KeyModule:
		matched = f.Module != "" && m.glob.Match(f.Module)
	case KeyPackage:
		matched = f.Package != "" && m.glob.Match(normalizePath(f.Package))
	}
	if m.negated {
		return !matched
	}
	return matched
}

// candidates returns the event attribute values the pattern is tested
// against. Absent attributes yield no candidates.
func (m *Matcher) candidates(e *event.Event) []string {
	switch m.key {
	case KeyFamily:
		return []string{e.Family()}
	case KeyMessage:
		return []string{e.Message}
	case KeyLogger:
		return []string{e.Logger}
	case KeyLevel:
		return []string{e.Level}
	case KeyRelease:
		return []string{e.Release}
	case KeyTag:
		if v, ok := e.Tags[m.tagName]; ok {
			return []string{v}
		}
		return nil
	case KeyType:
		values := make([]string, 0, len(e.Exceptions))
		for i := range e.Exceptions {
			values = append(values, e.Exceptions[i].Type)
		}
		return values
	case KeyValue:
		values := make([]string, 0, len(e.Exceptions))
		for i := range e.Exceptions {
			values = append(values, e.Exceptions[i].Value)
		}
		return values
	}
	return nil
}

// matchBool interprets the pattern of an app matcher as a boolean
func matchBool(pattern string, value bool) bool {
	switch strings.ToLower(pattern) {
	case "1", "yes", "true":
		return value
	case "0", "no", "false":
		return !value
	}
	return false
}

// normalizePath lowercases a path and converts backslashes so glob
// patterns written with forward slashes match Windows frames too
func normalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
}

// ConfigKey renders the matcher key back into its configuration form,
// including negation and tag name
func (m *Matcher) ConfigKey() string {
	key := string(m.key)
	if m.key == KeyTag {
		key = "tags." + m.tagName
	}
	if m.negated {
		key = "!" + key
	}
	return key
}
