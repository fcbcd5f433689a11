package rules

import (
	"strings"

	"github.com/arthur-debert/grouphash/pkg/event"
	"github.com/arthur-debert/grouphash/pkg/logging"
)

// Template variables resolvable in fingerprint tokens. {{ default }} is
// special: it keeps the default grouping components in play and turns the
// remaining values into a hash salt.
const (
	VarDefault     = "default"
	VarType        = "type"
	VarValue       = "value"
	VarMessage     = "message"
	VarModule      = "module"
	VarFunction    = "function"
	VarPackage     = "package"
	VarLevel       = "level"
	VarLogger      = "logger"
	VarTransaction = "transaction"
)

// templateVars dispatches each variable to its event attribute. Resolution
// is validated at config-load time via KnownVariable/VarName, never by
// reflection at render time.
var templateVars = map[string]func(*event.Event) string{
	VarType:        firstExceptionType,
	VarValue:       firstExceptionValue,
	VarMessage:     func(e *event.Event) string { return e.Message },
	VarModule:      firstFrameModule,
	VarFunction:    firstFrameFunction,
	VarPackage:     firstFramePackage,
	VarLevel:       func(e *event.Event) string { return e.Level },
	VarLogger:      func(e *event.Event) string { return e.Logger },
	VarTransaction: func(e *event.Event) string { return e.Transaction },
}

// KnownVariable reports whether name is a resolvable template variable
func KnownVariable(name string) bool {
	if name == VarDefault {
		return true
	}
	_, ok := templateVars[name]
	return ok
}

// VarName extracts the variable name from a template token like
// "{{ package }}". Returns "" when the token is a literal.
func VarName(token string) string {
	inner, ok := strings.CutPrefix(token, "{{")
	if !ok {
		return ""
	}
	inner, ok = strings.CutSuffix(inner, "}}")
	if !ok {
		return ""
	}
	return strings.TrimSpace(inner)
}

// RenderFingerprint expands a fingerprint template against an event.
// Literal tokens pass through; placeholders resolve to the referenced
// attribute or to the empty string when the event lacks it; degrading to
// an empty value is documented behavior, never an error. The second
// return value reports whether the template contained {{ default }}.
func RenderFingerprint(tokens []string, e *event.Event) ([]string, bool) {
	logger := logging.GetLogger("rules.template")

	values := make([]string, 0, len(tokens))
	isDefault := false
	for _, token := range tokens {
		name := VarName(token)
		if name == "" {
			values = append(values, token)
			continue
		}
		if name == VarDefault {
			isDefault = true
			values = append(values, token)
			continue
		}
		resolve, ok := templateVars[name]
		if !ok {
			// Unknown variables are rejected at config load; reaching this
			// means the token bypassed validation. Degrade rather than fail.
			logger.Warn().Str("variable", name).Msg("Unresolvable template variable")
			values = append(values, "")
			continue
		}
		value := resolve(e)
		if value == "" {
			logger.Debug().
				Str("variable", name).
				Msg("Template variable empty for event, substituting empty string")
		}
		values = append(values, value)
	}
	return values, isDefault
}

// firstExceptionType resolves {{ type }}: the outermost exception's type
func firstExceptionType(e *event.Event) string {
	for i := range e.Exceptions {
		if e.Exceptions[i].Type != "" {
			return e.Exceptions[i].Type
		}
	}
	return ""
}

func firstExceptionValue(e *event.Event) string {
	for i := range e.Exceptions {
		if e.Exceptions[i].Value != "" {
			return e.Exceptions[i].Value
		}
	}
	return ""
}

// crashingFrame returns the innermost frame of the first exception that
// has any, the frame fingerprint variables refer to
func crashingFrame(e *event.Event) *event.Frame {
	for i := range e.Exceptions {
		frames := e.Exceptions[i].Frames()
		if len(frames) > 0 {
			return &frames[len(frames)-1]
		}
	}
	return nil
}

func firstFrameModule(e *event.Event) string {
	if f := crashingFrame(e); f != nil {
		return f.Module
	}
	return ""
}

func firstFrameFunction(e *event.Event) string {
	if f := crashingFrame(e); f != nil {
		return f.Function
	}
	return ""
}

func firstFramePackage(e *event.Event) string {
	if f := crashingFrame(e); f != nil {
		return f.Package
	}
	return ""
}
