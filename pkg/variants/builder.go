package variants

import (
	"github.com/rs/zerolog"

	"github.com/arthur-debert/grouphash/pkg/event"
	"github.com/arthur-debert/grouphash/pkg/logging"
	"github.com/arthur-debert/grouphash/pkg/rules"
)

// Key identifies one candidate grouping strategy
type Key string

// Variant keys
const (
	KeyApp               Key = "app"
	KeySystem            Key = "system"
	KeyCustomFingerprint Key = "custom_fingerprint"
	KeyMessage           Key = "message"
	KeyFallback          Key = "fallback"
)

// Hints attached to variants whose contribution was suppressed or
// redirected
const (
	HintCustomFingerprintPrecedence = "custom fingerprint takes precedence"
	HintNoInAppFrames               = "no frames marked in-app"
	HintNoStacktrace                = "no stacktrace available"
	HintNoMessage                   = "no message available"
	HintSaltedByFingerprint         = "modified by custom fingerprint"
)

// Variant is one candidate grouping strategy's computed contribution.
// Variants are derived fresh per event and never mutated afterwards.
type Variant struct {
	// Key names the strategy (app, system, custom_fingerprint, ...)
	Key Key `json:"key"`

	// Contributes reports whether this variant's component tree feeds a
	// group hash
	Contributes bool `json:"contributes"`

	// Hash is the content hash of the contributing tree, set by the
	// engine for contributing variants
	Hash string `json:"hash,omitempty"`

	// Component is the root of the variant's component tree
	Component *Component `json:"component,omitempty"`

	// Hint explains why the variant does or does not contribute
	Hint string `json:"hint,omitempty"`
}

// BuildVariants computes the variant map for an event. When match carries
// a non-salted custom fingerprint, the custom_fingerprint variant wins
// and the stacktrace-derived variants are kept but marked
// non-contributing. A salted match ({{ default }} in the fingerprint)
// instead appends the custom values to the default variants' trees.
// With no match at all, app and system variants derive from the
// exception stacktraces, falling back to the message when no frames
// exist.
func BuildVariants(e *event.Event, match *rules.MatchResult) map[Key]*Variant {
	logger := logging.GetLogger("variants.builder")

	result := make(map[Key]*Variant)

	if match != nil && !match.IsDefault {
		result[KeyCustomFingerprint] = &Variant{
			Key:         KeyCustomFingerprint,
			Contributes: true,
			Component:   NewValuesLeaf(KindFingerprint, match.Fingerprint...),
		}

		for _, key := range []Key{KeyApp, KeySystem} {
			variant := buildStacktraceVariant(e, key)
			variant.Contributes = false
			variant.Hint = HintCustomFingerprintPrecedence
			if variant.Component != nil {
				variant.Component.MarkNonContributing(HintCustomFingerprintPrecedence)
			}
			result[key] = variant
		}

		logger.Debug().
			Strs("fingerprint", match.Fingerprint).
			Msg("Custom fingerprint variant built")
		return result
	}

	if !e.HasFrames() {
		return buildFallbackVariants(e, match, logger)
	}

	for _, key := range []Key{KeyApp, KeySystem} {
		variant := buildStacktraceVariant(e, key)
		if match != nil {
			saltVariant(variant, match)
		}
		result[key] = variant
	}

	logger.Debug().
		Bool("appContributes", result[KeyApp].Contributes).
		Bool("systemContributes", result[KeySystem].Contributes).
		Msg("Stacktrace variants built")
	return result
}

// buildStacktraceVariant derives one variant from the event's exception
// chain. The app variant keeps only in-app frames; the system variant
// keeps all frames.
func buildStacktraceVariant(e *event.Event, key Key) *Variant {
	inAppOnly := key == KeyApp

	exceptionNodes := make([]*Component, 0, len(e.Exceptions))
	for i := range e.Exceptions {
		exceptionNodes = append(exceptionNodes, buildExceptionNode(&e.Exceptions[i], inAppOnly))
	}

	var root *Component
	switch len(exceptionNodes) {
	case 0:
		root = NewNode(KindException)
	case 1:
		root = exceptionNodes[0]
	default:
		// Exceptions chained via cause each contribute their own subtree
		root = NewNode(KindChainedException, exceptionNodes...)
	}

	variant := &Variant{
		Key:         key,
		Contributes: root.Contributes,
		Component:   root,
	}

	if !variant.Contributes {
		if inAppOnly && e.HasFrames() {
			variant.Hint = HintNoInAppFrames
			root.Hint = HintNoInAppFrames
		} else {
			variant.Hint = HintNoStacktrace
			root.Hint = HintNoStacktrace
		}
	}
	return variant
}

// buildExceptionNode builds the exception → stacktrace → frames subtree
// for one exception
func buildExceptionNode(x *event.Exception, inAppOnly bool) *Component {
	frames := x.Frames()
	frameNodes := make([]*Component, 0, len(frames))
	for i := range frames {
		frameNodes = append(frameNodes, buildFrameNode(&frames[i], inAppOnly))
	}

	stacktrace := NewNode(KindStacktrace, frameNodes...)

	typeNode := NewLeaf(KindType, x.Type)
	moduleNode := NewLeaf(KindModule, x.Module)
	node := NewNode(KindException, typeNode, moduleNode, stacktrace)

	// The exception type and module alone do not make a variant
	// contribute; only contributing frames do
	node.Contributes = stacktrace.Contributes
	return node
}

// buildFrameNode builds one frame's leaf components. Frames contribute
// their module, function and context line. For the app variant, frames
// not marked in-app are kept in the tree but do not contribute.
func buildFrameNode(f *event.Frame, inAppOnly bool) *Component {
	node := NewNode(KindFrame,
		NewLeaf(KindModule, f.Module),
		NewLeaf(KindFunction, f.Function),
		NewLeaf(KindContextLine, f.ContextLine),
	)

	if inAppOnly && !f.InApp {
		node.MarkNonContributing("non-app frame")
	}
	return node
}

// saltVariant appends the custom fingerprint values as a salt component,
// keeping the default tree contributing. The {{ default }} token itself
// is not part of the salt.
func saltVariant(v *Variant, match *rules.MatchResult) {
	salt := make([]string, 0, len(match.Fingerprint))
	for _, value := range match.Fingerprint {
		if rules.VarName(value) == rules.VarDefault {
			continue
		}
		salt = append(salt, value)
	}
	if len(salt) == 0 {
		return
	}

	saltNode := NewValuesLeaf(KindSalt, salt...)
	v.Component.Children = append(v.Component.Children, saltNode)
	v.Hint = HintSaltedByFingerprint
	if !v.Contributes {
		// A salt alone is enough to group by even without frames
		v.Contributes = true
		v.Component.Contributes = true
	}
}

// buildFallbackVariants handles events without any stacktrace frames:
// hash basis degrades to the message, then to a non-contributing fallback
func buildFallbackVariants(e *event.Event, match *rules.MatchResult, logger zerolog.Logger) map[Key]*Variant {
	result := map[Key]*Variant{
		KeyApp: {
			Key:       KeyApp,
			Hint:      HintNoStacktrace,
			Component: NewNode(KindException).WithHint(HintNoStacktrace),
		},
		KeySystem: {
			Key:       KeySystem,
			Hint:      HintNoStacktrace,
			Component: NewNode(KindException).WithHint(HintNoStacktrace),
		},
	}

	message := e.Message
	if message == "" {
		// Fall back to the exception value, then type
		for i := range e.Exceptions {
			if e.Exceptions[i].Value != "" {
				message = e.Exceptions[i].Value
				break
			}
			if e.Exceptions[i].Type != "" {
				message = e.Exceptions[i].Type
				break
			}
		}
	}

	if message != "" {
		messageVariant := &Variant{
			Key:         KeyMessage,
			Contributes: true,
			Component:   NewLeaf(KindMessage, message),
		}
		if match != nil {
			saltVariant(messageVariant, match)
		}
		result[KeyMessage] = messageVariant
		logger.Debug().Msg("No frames, grouping by message")
		return result
	}

	logger.Debug().Msg("No frames and no message, fallback variant")
	result[KeyFallback] = &Variant{
		Key:       KeyFallback,
		Hint:      HintNoMessage,
		Component: NewNode(KindException).WithHint(HintNoMessage),
	}
	return result
}
