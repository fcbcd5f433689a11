package engine

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/grouphash/pkg/errors"
	"github.com/arthur-debert/grouphash/pkg/event"
	"github.com/arthur-debert/grouphash/pkg/hasher"
	"github.com/arthur-debert/grouphash/pkg/logging"
	"github.com/arthur-debert/grouphash/pkg/rules"
	"github.com/arthur-debert/grouphash/pkg/variants"
)

// HashBasis names the high-level strategy a group hash was derived from
type HashBasis string

// Hash bases, ordered from most to least specific
const (
	BasisFingerprint       HashBasis = "fingerprint"
	BasisHybridFingerprint HashBasis = "hybrid_fingerprint"
	BasisStacktrace        HashBasis = "stacktrace"
	BasisMessage           HashBasis = "message"
	BasisFallback          HashBasis = "fallback"
)

// GroupHashMetadata describes how an event's group hash came to be. It is
// recomputed per event and never mutated once produced; consumers tag
// metrics and persistence records with it.
type GroupHashMetadata struct {
	// HashBasis is the winning grouping strategy
	HashBasis HashBasis `json:"hash_basis"`

	// HashingMetadata carries descriptive fields about the basis, e.g.
	// num_stacktraces, stacktrace_location, stacktrace_type
	HashingMetadata map[string]string `json:"hashing_metadata,omitempty"`
}

// Result is the engine's output for one event
type Result struct {
	// Variants maps variant key to the computed variant. Contributing
	// variants carry their hash.
	Variants map[variants.Key]*variants.Variant `json:"variants"`

	// Metadata describes the hash basis of the winning variant
	Metadata GroupHashMetadata `json:"metadata"`
}

// PrimaryHash returns the hash of the winning variant: the custom
// fingerprint when one matched, otherwise the app variant when it
// contributes, otherwise system, message, fallback. Empty when nothing
// contributes.
func (r *Result) PrimaryHash() string {
	for _, key := range []variants.Key{
		variants.KeyCustomFingerprint,
		variants.KeyApp,
		variants.KeySystem,
		variants.KeyMessage,
		variants.KeyFallback,
	} {
		if v, ok := r.Variants[key]; ok && v.Contributes {
			return v.Hash
		}
	}
	return ""
}

// Engine evaluates events against an immutable rule-set snapshot.
// Evaluation is stateless and side-effect free, so a single engine is
// safe for unbounded concurrent use. Reload swaps the snapshot
// atomically; in-flight evaluations keep the snapshot they started with.
type Engine struct {
	ruleset atomic.Pointer[rules.RuleSet]
	logger  zerolog.Logger
}

// New creates an engine with the given rule set
func New(rs *rules.RuleSet) *Engine {
	e := &Engine{logger: logging.GetLogger("engine")}
	e.ruleset.Store(rs)
	return e
}

// Reload atomically replaces the rule-set snapshot. In-flight
// evaluations keep the snapshot they loaded; none observes a partial
// update.
func (e *Engine) Reload(rs *rules.RuleSet) {
	e.ruleset.Store(rs)
	e.logger.Info().
		Int("ruleCount", len(rs.Rules())).
		Int("version", rs.Version()).
		Msg("Rule set reloaded")
}

// RuleSet returns the current rule-set snapshot
func (e *Engine) RuleSet() *rules.RuleSet {
	return e.ruleset.Load()
}

// Evaluate classifies one event: applies the rule set, builds variants,
// hashes the contributing trees and derives the hash-basis metadata.
// The only error condition is a nil event; for any well-formed event the
// engine always produces a deterministic result.
func (e *Engine) Evaluate(ev *event.Event) (*Result, error) {
	if ev == nil {
		return nil, errors.New(errors.ErrEventInvalid, "event is nil")
	}
	defer logging.LogDuration(time.Now(), "engine.evaluate")

	rs := e.ruleset.Load()
	match := rs.Apply(ev)

	variantMap := variants.BuildVariants(ev, match)
	for _, v := range variantMap {
		if v.Contributes && v.Component != nil {
			v.Hash = hasher.Hash(v.Component)
		}
	}

	result := &Result{
		Variants: variantMap,
		Metadata: buildMetadata(ev, match, variantMap),
	}

	e.logger.Debug().
		Str("hashBasis", string(result.Metadata.HashBasis)).
		Str("hash", result.PrimaryHash()).
		Msg("Event evaluated")
	return result, nil
}

// buildMetadata derives the hash basis and its descriptive fields from
// the winning variant
func buildMetadata(ev *event.Event, match *rules.MatchResult, variantMap map[variants.Key]*variants.Variant) GroupHashMetadata {
	meta := map[string]string{}

	switch {
	case match != nil && !match.IsDefault:
		return GroupHashMetadata{HashBasis: BasisFingerprint, HashingMetadata: meta}

	case contributes(variantMap, variants.KeyApp) || contributes(variantMap, variants.KeySystem):
		basis := BasisStacktrace
		if match != nil && match.IsDefault {
			basis = BasisHybridFingerprint
		}

		stacktraceType := "system"
		if contributes(variantMap, variants.KeyApp) {
			stacktraceType = "in_app"
		}

		numStacktraces := 0
		for i := range ev.Exceptions {
			if len(ev.Exceptions[i].Frames()) > 0 {
				numStacktraces++
			}
		}

		meta["num_stacktraces"] = strconv.Itoa(numStacktraces)
		meta["stacktrace_location"] = "exception"
		meta["stacktrace_type"] = stacktraceType
		if len(ev.Exceptions) > 1 {
			meta["chained_exception"] = "true"
		}
		return GroupHashMetadata{HashBasis: basis, HashingMetadata: meta}

	case contributes(variantMap, variants.KeyMessage):
		basis := BasisMessage
		if match != nil && match.IsDefault {
			basis = BasisHybridFingerprint
		}
		return GroupHashMetadata{HashBasis: basis, HashingMetadata: meta}

	default:
		return GroupHashMetadata{HashBasis: BasisFallback, HashingMetadata: meta}
	}
}

func contributes(variantMap map[variants.Key]*variants.Variant, key variants.Key) bool {
	v, ok := variantMap[key]
	return ok && v.Contributes
}
