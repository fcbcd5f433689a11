package rules

import (
	"strings"

	"github.com/arthur-debert/grouphash/pkg/errors"
)

// ParseRules parses the textual fingerprint rule DSL into rules. One rule
// per line, matchers before "->", fingerprint tokens and optional
// attributes after:
//
//	type:"DatabaseUnavailable" -> "{{ package }}"
//	family:native !package:"*/libc*" -> native-crash title="Native Crash"
//
// Blank lines and "#" comments are skipped. Parsing is all-or-nothing:
// the first malformed line fails the whole document.
func ParseRules(text string) ([]*Rule, error) {
	var rules []*Rule
	for i, line := range strings.Split(text, "\n") {
		if idx := strings.IndexByte(line, '#'); idx >= 0 && !insideQuotes(line, idx) {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rule, err := ParseRule(line)
		if err != nil {
			var groupErr *errors.GroupError
			if e, ok := err.(*errors.GroupError); ok {
				groupErr = e
			} else {
				groupErr = errors.Wrap(err, errors.ErrRuleParse, "invalid rule")
			}
			return nil, groupErr.WithDetail("line", i+1)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ParseRule parses a single DSL line into a rule
func ParseRule(line string) (*Rule, error) {
	tokens, err := lex(line)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseRule()
}

// insideQuotes reports whether position idx falls inside a quoted string,
// so '#' inside patterns does not start a comment
func insideQuotes(line string, idx int) bool {
	open := false
	for i := 0; i < idx; i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			open = !open
		}
	}
	return open
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokColon
	tokEquals
	tokArrow
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits a rule line into tokens. Bare words may contain glob
// characters; anything with spaces or reserved characters must be quoted.
func lex(line string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == ':':
			tokens = append(tokens, token{tokColon, ":", i})
			i++
		case c == '=':
			tokens = append(tokens, token{tokEquals, "=", i})
			i++
		case c == '-' && i+1 < len(line) && line[i+1] == '>':
			tokens = append(tokens, token{tokArrow, "->", i})
			i += 2
		case c == '"':
			text, next, err := lexString(line, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokString, text, i})
			i = next
		default:
			start := i
			for i < len(line) && !strings.ContainsRune(" \t:=\"", rune(line[i])) {
				// Stop a bare word before "->" but allow '-' inside words
				if line[i] == '-' && i+1 < len(line) && line[i+1] == '>' {
					break
				}
				i++
			}
			if i == start {
				return nil, errors.Newf(errors.ErrRuleParse,
					"unexpected character %q at column %d", line[i], i+1)
			}
			tokens = append(tokens, token{tokWord, line[start:i], start})
		}
	}
	return tokens, nil
}

// lexString scans a quoted string literal with backslash escapes
func lexString(line string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(line) {
		c := line[i]
		switch c {
		case '\\':
			if i+1 >= len(line) {
				return "", 0, errors.Newf(errors.ErrRuleParse,
					"dangling escape at column %d", i+1)
			}
			b.WriteByte(line[i+1])
			i += 2
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, errors.Newf(errors.ErrRuleParse,
		"unterminated string starting at column %d", start+1)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) parseRule() (*Rule, error) {
	matcherPairs, err := p.parseMatchers()
	if err != nil {
		return nil, err
	}

	arrow, ok := p.next()
	if !ok || arrow.kind != tokArrow {
		return nil, errors.New(errors.ErrRuleParse, `expected "->" after matchers`)
	}

	fingerprint, attributes, err := p.parseFingerprint()
	if err != nil {
		return nil, err
	}

	return NewRule(matcherPairs, fingerprint, attributes)
}

// parseMatchers reads key:pattern pairs until the arrow
func (p *parser) parseMatchers() ([][2]string, error) {
	var pairs [][2]string
	for {
		t, ok := p.peek()
		if !ok {
			return nil, errors.New(errors.ErrRuleParse, `rule is missing "->"`)
		}
		if t.kind == tokArrow {
			return pairs, nil
		}
		if t.kind != tokWord {
			return nil, errors.Newf(errors.ErrRuleParse,
				"expected matcher key at column %d", t.pos+1)
		}
		p.pos++

		colon, ok := p.next()
		if !ok || colon.kind != tokColon {
			return nil, errors.Newf(errors.ErrRuleParse,
				"expected ':' after matcher key %q", t.text)
		}

		pattern, ok := p.next()
		if !ok || (pattern.kind != tokWord && pattern.kind != tokString) {
			return nil, errors.Newf(errors.ErrRuleParse,
				"expected pattern after matcher key %q", t.text)
		}

		pairs = append(pairs, [2]string{t.text, pattern.text})
	}
}

// parseFingerprint reads fingerprint tokens, then key="value" attributes
func (p *parser) parseFingerprint() ([]string, map[string]string, error) {
	var fingerprint []string
	attributes := make(map[string]string)

	for {
		t, ok := p.next()
		if !ok {
			break
		}
		if t.kind != tokWord && t.kind != tokString {
			return nil, nil, errors.Newf(errors.ErrRuleParse,
				"unexpected %q at column %d", t.text, t.pos+1)
		}

		// A bare word followed by '=' starts the attribute section
		if eq, ok := p.peek(); ok && eq.kind == tokEquals && t.kind == tokWord {
			p.pos++
			value, ok := p.next()
			if !ok || (value.kind != tokWord && value.kind != tokString) {
				return nil, nil, errors.Newf(errors.ErrRuleParse,
					"expected value for attribute %q", t.text)
			}
			attributes[t.text] = value.text
			continue
		}

		if len(attributes) > 0 {
			return nil, nil, errors.Newf(errors.ErrRuleParse,
				"fingerprint token %q after attributes", t.text)
		}

		if name := VarName(t.text); name != "" && !KnownVariable(name) {
			return nil, nil, errors.Newf(errors.ErrTemplateInvalid,
				"unknown template variable %q", name)
		}
		fingerprint = append(fingerprint, normalizeToken(t.text))
	}

	return fingerprint, attributes, nil
}

// normalizeToken canonicalizes placeholder spacing so "{{package}}" and
// "{{ package }}" render and hash identically
func normalizeToken(tok string) string {
	if name := VarName(tok); name != "" {
		return "{{ " + name + " }}"
	}
	return tok
}
