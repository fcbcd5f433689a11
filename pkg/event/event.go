package event

// Event is the normalized, already-parsed error event the engine consumes.
// Parsing from wire format is a collaborator's responsibility; the engine
// treats events as read-only and never mutates them.
type Event struct {
	// Platform identifies the originating SDK runtime (e.g. "python",
	// "javascript", "native"). Used to derive the grouping family.
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`

	// Level is the severity reported by the client ("error", "warning", ...)
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Logger is the name of the logger that captured the event
	Logger string `json:"logger,omitempty" yaml:"logger,omitempty"`

	// Message is the log message, used as a secondary hash basis when no
	// stacktrace is available
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Transaction is the culprit transaction/route name, if any
	Transaction string `json:"transaction,omitempty" yaml:"transaction,omitempty"`

	// Release is the client-reported release identifier
	Release string `json:"release,omitempty" yaml:"release,omitempty"`

	// Tags are arbitrary key/value pairs attached by the client
	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Exceptions is the exception chain, ordered from the outermost
	// (most recently raised) exception to the innermost cause. Chains are
	// acyclic by construction.
	Exceptions []Exception `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
}

// Exception is one entry in an event's exception chain
type Exception struct {
	// Type is the exception class name (e.g. "DatabaseUnavailable")
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Value is the exception message
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Module is the module/namespace the exception type is defined in
	Module string `json:"module,omitempty" yaml:"module,omitempty"`

	// Mechanism names how the exception was captured (e.g. "excepthook",
	// "signalhandler"). Informational; it never affects grouping.
	Mechanism string `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`

	// Stacktrace holds the frames captured for this exception, if any
	Stacktrace *Stacktrace `json:"stacktrace,omitempty" yaml:"stacktrace,omitempty"`
}

// Stacktrace is an ordered sequence of frames. Frames run from the
// outermost caller first to the innermost (crashing) frame last, the order
// SDKs deliver them in. All consumers rely on this orientation.
type Stacktrace struct {
	Frames []Frame `json:"frames,omitempty" yaml:"frames,omitempty"`
}

// Frame is a single stack entry
type Frame struct {
	// Module is the dotted module or namespace containing the function
	Module string `json:"module,omitempty" yaml:"module,omitempty"`

	// Function is the name of the function or method
	Function string `json:"function,omitempty" yaml:"function,omitempty"`

	// Package is the binary/library the frame belongs to (e.g. "foo.dylib")
	Package string `json:"package,omitempty" yaml:"package,omitempty"`

	// Path is the source file path, absolute or relative
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ContextLine is the source snippet at the frame's line
	ContextLine string `json:"context_line,omitempty" yaml:"context_line,omitempty"`

	// InApp marks frames the client/SDK attributes to the user's own code,
	// as opposed to third-party or runtime code
	InApp bool `json:"in_app,omitempty" yaml:"in_app,omitempty"`
}

// Frames returns the exception's frames, or nil when it carries no
// stacktrace. Convenience accessor so callers never nil-check Stacktrace.
func (x *Exception) Frames() []Frame {
	if x.Stacktrace == nil {
		return nil
	}
	return x.Stacktrace.Frames
}

// HasFrames reports whether any exception in the chain carries at least
// one frame
func (e *Event) HasFrames() bool {
	for i := range e.Exceptions {
		if len(e.Exceptions[i].Frames()) > 0 {
			return true
		}
	}
	return false
}

// Family maps the event's platform onto a grouping family. Families let a
// single rule cover related platforms (all native SDKs, all JS runtimes).
func (e *Event) Family() string {
	return FamilyForPlatform(e.Platform)
}

// FamilyForPlatform returns the grouping family for an SDK platform name.
// Unknown platforms fall into the "other" family.
func FamilyForPlatform(platform string) string {
	switch platform {
	case "javascript", "node":
		return "javascript"
	case "native", "c", "cocoa", "objc", "swift":
		return "native"
	case "":
		return "other"
	default:
		if family, ok := platformFamilies[platform]; ok {
			return family
		}
		return "other"
	}
}

// platformFamilies covers platforms that alias onto a shared family
var platformFamilies = map[string]string{
	"cordova":         "javascript",
	"react-native":    "javascript",
	"electron":        "javascript",
	"c++":             "native",
	"rust-native":     "native",
	"unreal":          "native",
	"nintendo-switch": "native",
}
