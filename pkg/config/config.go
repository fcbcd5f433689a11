package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/grouphash/pkg/errors"
	"github.com/arthur-debert/grouphash/pkg/logging"
	"github.com/arthur-debert/grouphash/pkg/rules"
)

//go:embed default_rules.toml
var defaultRules []byte

// ruleConfig is one rule record in a structured config file. A rule is
// given either as its DSL text or as structured
// matchers/fingerprint/attributes fields, not both.
type ruleConfig struct {
	Text        string            `koanf:"text"`
	Matchers    [][]string        `koanf:"matchers"`
	Fingerprint []string          `koanf:"fingerprint"`
	Attributes  map[string]string `koanf:"attributes"`
}

// fileConfig is the structured rule-set file layout
type fileConfig struct {
	Version int          `koanf:"version"`
	Rules   []ruleConfig `koanf:"rules"`
}

// Load reads a rule set from a file. TOML and YAML files use the
// structured layout; any other extension is parsed as the plain rule DSL.
// Loading is all-or-nothing: one malformed rule fails the whole file and
// the previous rule set stays in effect.
func Load(path string) (*rules.RuleSet, error) {
	logger := logging.GetLogger("config")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadStructured(file.Provider(path), toml.Parser(), path)
	case ".yaml", ".yml":
		return loadStructured(file.Provider(path), yaml.Parser(), path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad,
				"failed to read rules file %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loading plain DSL rules file")
		return LoadDSL(string(data))
	}
}

// LoadDSL builds a rule set from plain DSL text at the current config
// version
func LoadDSL(text string) (*rules.RuleSet, error) {
	parsed, err := rules.ParseRules(text)
	if err != nil {
		return nil, err
	}
	return rules.NewRuleSet(parsed, rules.CurrentVersion)
}

// LoadTOML builds a rule set from structured TOML bytes
func LoadTOML(data []byte) (*rules.RuleSet, error) {
	return loadStructured(rawbytes.Provider(data), toml.Parser(), "<bytes>")
}

// LoadYAML builds a rule set from structured YAML bytes
func LoadYAML(data []byte) (*rules.RuleSet, error) {
	return loadStructured(rawbytes.Provider(data), yaml.Parser(), "<bytes>")
}

// Default returns the embedded default rule set: the current version and
// no custom rules, so every event takes the default grouping path
func Default() *rules.RuleSet {
	rs, err := LoadTOML(defaultRules)
	if err != nil {
		// The embedded defaults are compiled in and covered by tests
		panic(err)
	}
	return rs
}

// DefaultPath returns the conventional location of the user's rules file
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "grouphash", "rules.toml")
}

func loadStructured(provider koanf.Provider, parser koanf.Parser, source string) (*rules.RuleSet, error) {
	logger := logging.GetLogger("config")

	k := koanf.New(".")
	if err := k.Load(provider, parser); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse,
			"failed to parse rules config %s", source)
	}

	var cfg fileConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse,
			"invalid rules config structure in %s", source)
	}

	parsed := make([]*rules.Rule, 0, len(cfg.Rules))
	for i, rc := range cfg.Rules {
		rule, err := buildRule(rc)
		if err != nil {
			var groupErr *errors.GroupError
			if e, ok := err.(*errors.GroupError); ok {
				groupErr = e
			} else {
				groupErr = errors.Wrap(err, errors.ErrConfigValid, "invalid rule")
			}
			return nil, groupErr.WithDetail("rule", i)
		}
		parsed = append(parsed, rule)
	}

	logger.Info().
		Str("source", source).
		Int("ruleCount", len(parsed)).
		Int("version", cfg.Version).
		Msg("Loaded rule set")

	return rules.NewRuleSet(parsed, cfg.Version)
}

// buildRule materializes one configured rule record
func buildRule(rc ruleConfig) (*rules.Rule, error) {
	if rc.Text != "" {
		if len(rc.Matchers) > 0 || len(rc.Fingerprint) > 0 || len(rc.Attributes) > 0 {
			return nil, errors.New(errors.ErrConfigValid,
				"rule must use either text or structured fields, not both")
		}
		return rules.ParseRule(rc.Text)
	}

	pairs := make([][2]string, 0, len(rc.Matchers))
	for _, m := range rc.Matchers {
		if len(m) != 2 {
			return nil, errors.Newf(errors.ErrConfigValid,
				"matcher must be a [key, pattern] pair, got %d elements", len(m))
		}
		pairs = append(pairs, [2]string{m[0], m[1]})
	}
	return rules.NewRule(pairs, rc.Fingerprint, rc.Attributes)
}

// tomlRule is the canonical TOML rendering of one rule
type tomlRule struct {
	Text string `toml:"text"`
}

// tomlFile is the canonical TOML rule-set layout
type tomlFile struct {
	Version int        `toml:"version"`
	Rules   []tomlRule `toml:"rules,omitempty"`
}

// GenerateTOML renders a rule set into canonical TOML, each rule in its
// DSL text form. Loading the output yields an equivalent rule set.
func GenerateTOML(rs *rules.RuleSet) ([]byte, error) {
	out := tomlFile{Version: rs.Version()}
	for _, rule := range rs.Rules() {
		out.Rules = append(out.Rules, tomlRule{Text: rule.Text()})
	}

	data, err := gotoml.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render rules TOML")
	}
	return data, nil
}
