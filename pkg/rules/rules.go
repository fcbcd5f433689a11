package rules

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/grouphash/pkg/errors"
	"github.com/arthur-debert/grouphash/pkg/event"
	"github.com/arthur-debert/grouphash/pkg/logging"
	"github.com/arthur-debert/grouphash/pkg/matchers"
)

// Rule is one fingerprint rule: an ordered set of matchers (AND
// semantics), the fingerprint template to apply when all of them match,
// and optional attributes such as a custom title. Rules are immutable
// after construction.
type Rule struct {
	matchers    []*matchers.Matcher
	fingerprint []string
	attributes  map[string]string
}

// NewRule builds a rule from raw [key, pattern] matcher pairs and a
// fingerprint token list. Matcher compilation errors surface here, so an
// invalid rule never makes it into a rule set.
func NewRule(matcherPairs [][2]string, fingerprint []string, attributes map[string]string) (*Rule, error) {
	if len(matcherPairs) == 0 {
		return nil, errors.New(errors.ErrRuleInvalid, "rule has no matchers")
	}
	if len(fingerprint) == 0 {
		return nil, errors.New(errors.ErrRuleInvalid, "rule has no fingerprint")
	}

	compiled := make([]*matchers.Matcher, 0, len(matcherPairs))
	for _, pair := range matcherPairs {
		m, err := matchers.New(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, m)
	}

	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		if k != "title" {
			return nil, errors.Newf(errors.ErrRuleInvalid,
				"unknown rule attribute %q", k)
		}
		attrs[k] = v
	}

	return &Rule{
		matchers:    compiled,
		fingerprint: append([]string(nil), fingerprint...),
		attributes:  attrs,
	}, nil
}

// Matchers returns the rule's compiled matchers in declared order
func (r *Rule) Matchers() []*matchers.Matcher {
	return r.matchers
}

// Fingerprint returns the raw fingerprint template tokens
func (r *Rule) Fingerprint() []string {
	return r.fingerprint
}

// Attributes returns the rule's attributes (e.g. title)
func (r *Rule) Attributes() map[string]string {
	return r.attributes
}

// Matches reports whether every matcher of the rule matches the event.
// Event-scoped matchers are evaluated in declared order with a
// short-circuit on the first failure. If the rule carries frame-scoped
// matchers, some single frame in the event must satisfy all of them.
func (r *Rule) Matches(e *event.Event) bool {
	var frameMatchers []*matchers.Matcher
	for _, m := range r.matchers {
		if m.FrameScoped() {
			frameMatchers = append(frameMatchers, m)
			continue
		}
		if !m.Matches(e) {
			return false
		}
	}

	if len(frameMatchers) == 0 {
		return true
	}
	return anyFrameMatchesAll(e, frameMatchers)
}

// anyFrameMatchesAll reports whether one frame satisfies every
// frame-scoped matcher
func anyFrameMatchesAll(e *event.Event, frameMatchers []*matchers.Matcher) bool {
	for i := range e.Exceptions {
		frames := e.Exceptions[i].Frames()
		for j := range frames {
			matchedAll := true
			for _, m := range frameMatchers {
				if !m.MatchesFrame(&frames[j]) {
					matchedAll = false
					break
				}
			}
			if matchedAll {
				return true
			}
		}
	}
	return false
}

// Evaluate returns the rendered match result if the rule matches the
// event, or nil if it does not
func (r *Rule) Evaluate(e *event.Event) *MatchResult {
	if !r.Matches(e) {
		return nil
	}

	values, isDefault := RenderFingerprint(r.fingerprint, e)
	return &MatchResult{
		Rule:        r,
		Fingerprint: values,
		Attributes:  r.attributes,
		IsDefault:   isDefault,
	}
}

// MatchResult carries the rendered fingerprint of a matched rule
type MatchResult struct {
	// Rule is the rule that produced this result
	Rule *Rule

	// Fingerprint holds the resolved fingerprint values, template
	// placeholders already expanded
	Fingerprint []string

	// Attributes are the matched rule's attributes (e.g. title)
	Attributes map[string]string

	// IsDefault is true when the fingerprint contains {{ default }}: the
	// default grouping components stay in effect and the custom values
	// only salt the hash
	IsDefault bool
}

// RuleSet is an ordered list of rules with a version tag. Order is
// significant: the first fully matching rule wins and later rules are
// deliberately unreachable once an earlier one matches. Rule sets are
// immutable after load; reload by constructing a new set and swapping the
// reference.
type RuleSet struct {
	rules   []*Rule
	version int
	logger  zerolog.Logger
}

// CurrentVersion is the rule-set config version this engine reads and
// writes
const CurrentVersion = 1

// NewRuleSet builds an immutable rule set. The version must be a config
// version this engine understands.
func NewRuleSet(rules []*Rule, version int) (*RuleSet, error) {
	if version != CurrentVersion {
		return nil, errors.Newf(errors.ErrConfigValid,
			"unsupported rule set version %d", version)
	}
	return &RuleSet{
		rules:   append([]*Rule(nil), rules...),
		version: version,
		logger:  logging.GetLogger("rules.ruleset"),
	}, nil
}

// Rules returns the rules in declared order
func (rs *RuleSet) Rules() []*Rule {
	return rs.rules
}

// Version returns the rule set's config version
func (rs *RuleSet) Version() int {
	return rs.version
}

// Apply evaluates the event against the rules in declared order and
// returns the first match, or nil when no rule matches and the default
// grouping path applies.
func (rs *RuleSet) Apply(e *event.Event) *MatchResult {
	for i, rule := range rs.rules {
		if result := rule.Evaluate(e); result != nil {
			rs.logger.Debug().
				Int("ruleIndex", i).
				Str("rule", rule.Text()).
				Strs("fingerprint", result.Fingerprint).
				Msg("Rule matched")
			return result
		}
	}

	rs.logger.Debug().
		Int("ruleCount", len(rs.rules)).
		Msg("No rule matched, default grouping applies")
	return nil
}

// Text renders the rule back into its canonical DSL form. Parsing the
// rendering yields an equivalent rule, which is what the fmt command and
// config round-trips rely on.
func (r *Rule) Text() string {
	var b strings.Builder
	for i, m := range r.matchers {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.ConfigKey())
		b.WriteByte(':')
		b.WriteString(quote(m.Pattern()))
	}
	b.WriteString(" -> ")
	for i, token := range r.fingerprint {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(quote(token))
	}
	if title, ok := r.attributes["title"]; ok {
		b.WriteString(" title=")
		b.WriteString(quote(title))
	}
	return b.String()
}

// quote renders a DSL string literal
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
