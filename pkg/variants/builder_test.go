package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/grouphash/pkg/event"
	"github.com/arthur-debert/grouphash/pkg/rules"
)

func stacktraceEvent() *event.Event {
	return &event.Event{
		Platform: "python",
		Exceptions: []event.Exception{{
			Type:  "DatabaseUnavailable",
			Value: "connection refused",
			Stacktrace: &event.Stacktrace{
				Frames: []event.Frame{
					{Module: "django.core", Function: "dispatch", ContextLine: "return handler(request)"},
					{Module: "app.views", Function: "checkout", ContextLine: "charge(order)", InApp: true},
				},
			},
		}},
	}
}

func matchFor(t *testing.T, line string, e *event.Event) *rules.MatchResult {
	t.Helper()
	rule, err := rules.ParseRule(line)
	require.NoError(t, err)
	result := rule.Evaluate(e)
	require.NotNil(t, result)
	return result
}

func TestBuildVariants_CustomFingerprintPrecedence(t *testing.T) {
	e := stacktraceEvent()
	match := matchFor(t, `type:"DatabaseUnavailable" -> system-down`, e)

	result := BuildVariants(e, match)

	custom := result[KeyCustomFingerprint]
	require.NotNil(t, custom)
	assert.True(t, custom.Contributes)
	assert.Equal(t, KindFingerprint, custom.Component.Kind)
	assert.Equal(t, []string{"system-down"}, custom.Component.Values)

	for _, key := range []Key{KeyApp, KeySystem} {
		variant := result[key]
		require.NotNil(t, variant, string(key))
		assert.False(t, variant.Contributes, string(key))
		assert.Equal(t, HintCustomFingerprintPrecedence, variant.Hint, string(key))
	}
}

func TestBuildVariants_EmptyRenderedFingerprintStillContributes(t *testing.T) {
	// No frame carries a package, so {{ package }} renders empty. The
	// fingerprint variant and its component must still agree: both
	// contribute, with the empty value kept in the leaf.
	e := &event.Event{
		Exceptions: []event.Exception{{
			Type: "DatabaseUnavailable",
			Stacktrace: &event.Stacktrace{
				Frames: []event.Frame{{Module: "app.db", Function: "connect", InApp: true}},
			},
		}},
	}
	match := matchFor(t, `type:"*" -> "{{ package }}"`, e)

	result := BuildVariants(e, match)

	custom := result[KeyCustomFingerprint]
	require.NotNil(t, custom)
	assert.True(t, custom.Contributes)
	assert.True(t, custom.Component.Contributes)
	assert.Equal(t, []string{""}, custom.Component.Values)
}

func TestBuildVariants_AppAndSystem(t *testing.T) {
	result := BuildVariants(stacktraceEvent(), nil)

	app := result[KeyApp]
	system := result[KeySystem]
	require.NotNil(t, app)
	require.NotNil(t, system)

	assert.True(t, app.Contributes)
	assert.True(t, system.Contributes)
	assert.Nil(t, result[KeyCustomFingerprint])

	// The app variant keeps only the in-app frame
	assert.Equal(t, 1, app.Component.ContributingFrameCount())
	assert.Equal(t, 2, system.Component.ContributingFrameCount())

	// Both trees root at the exception component
	assert.Equal(t, KindException, app.Component.Kind)
	assert.Equal(t, KindException, system.Component.Kind)
}

func TestBuildVariants_FrameLeaves(t *testing.T) {
	result := BuildVariants(stacktraceEvent(), nil)

	var leaves []NodeKind
	var values []string
	result[KeySystem].Component.Walk(func(c *Component) bool {
		if !c.Contributes {
			return false
		}
		if len(c.Children) == 0 {
			leaves = append(leaves, c.Kind)
			values = append(values, c.Values...)
		}
		return true
	})

	assert.Contains(t, leaves, KindModule)
	assert.Contains(t, leaves, KindFunction)
	assert.Contains(t, leaves, KindContextLine)
	assert.Contains(t, leaves, KindType)
	assert.Contains(t, values, "app.views")
	assert.Contains(t, values, "charge(order)")
}

func TestBuildVariants_NoInAppFrames(t *testing.T) {
	e := &event.Event{
		Exceptions: []event.Exception{{
			Type: "Panic",
			Stacktrace: &event.Stacktrace{
				Frames: []event.Frame{
					{Module: "runtime", Function: "gopanic"},
				},
			},
		}},
	}

	result := BuildVariants(e, nil)

	assert.False(t, result[KeyApp].Contributes)
	assert.Equal(t, HintNoInAppFrames, result[KeyApp].Hint)
	assert.True(t, result[KeySystem].Contributes)
}

func TestBuildVariants_ChainedExceptions(t *testing.T) {
	e := &event.Event{
		Exceptions: []event.Exception{
			{
				Type: "RequestFailed",
				Stacktrace: &event.Stacktrace{
					Frames: []event.Frame{{Module: "app.http", Function: "get", InApp: true}},
				},
			},
			{
				Type: "SocketTimeout",
				Stacktrace: &event.Stacktrace{
					Frames: []event.Frame{{Module: "app.net", Function: "read", InApp: true}},
				},
			},
		},
	}

	result := BuildVariants(e, nil)

	system := result[KeySystem]
	require.NotNil(t, system)
	assert.Equal(t, KindChainedException, system.Component.Kind)
	require.Len(t, system.Component.Children, 2)
	assert.Equal(t, KindException, system.Component.Children[0].Kind)
	assert.Equal(t, KindException, system.Component.Children[1].Kind)
}

func TestBuildVariants_MessageFallback(t *testing.T) {
	e := &event.Event{Message: "disk full on /var"}

	result := BuildVariants(e, nil)

	message := result[KeyMessage]
	require.NotNil(t, message)
	assert.True(t, message.Contributes)
	assert.Equal(t, []string{"disk full on /var"}, message.Component.Values)

	assert.False(t, result[KeyApp].Contributes)
	assert.Equal(t, HintNoStacktrace, result[KeyApp].Hint)
	assert.False(t, result[KeySystem].Contributes)
}

func TestBuildVariants_ExceptionValueFallback(t *testing.T) {
	e := &event.Event{
		Exceptions: []event.Exception{{Type: "OOM", Value: "out of memory"}},
	}

	result := BuildVariants(e, nil)

	message := result[KeyMessage]
	require.NotNil(t, message)
	assert.Equal(t, []string{"out of memory"}, message.Component.Values)
}

func TestBuildVariants_EmptyEvent(t *testing.T) {
	result := BuildVariants(&event.Event{}, nil)

	fallback := result[KeyFallback]
	require.NotNil(t, fallback)
	assert.False(t, fallback.Contributes)
	assert.Equal(t, HintNoMessage, fallback.Hint)
	assert.Nil(t, result[KeyMessage])
}

func TestBuildVariants_SaltedFingerprint(t *testing.T) {
	e := stacktraceEvent()
	match := matchFor(t, `type:"DatabaseUnavailable" -> "{{ default }}" shard-7`, e)
	require.True(t, match.IsDefault)

	result := BuildVariants(e, match)

	// No custom_fingerprint variant: the default variants stay in charge
	assert.Nil(t, result[KeyCustomFingerprint])

	for _, key := range []Key{KeyApp, KeySystem} {
		variant := result[key]
		require.NotNil(t, variant, string(key))
		assert.True(t, variant.Contributes, string(key))
		assert.Equal(t, HintSaltedByFingerprint, variant.Hint, string(key))

		salt := variant.Component.Children[len(variant.Component.Children)-1]
		assert.Equal(t, KindSalt, salt.Kind)
		assert.Equal(t, []string{"shard-7"}, salt.Values)
	}
}

func TestBuildVariants_Immutability(t *testing.T) {
	e := stacktraceEvent()

	first := BuildVariants(e, nil)
	second := BuildVariants(e, nil)

	// Fresh trees each time, same structure
	require.NotSame(t, first[KeySystem], second[KeySystem])
	assert.Equal(t, first[KeySystem].Component, second[KeySystem].Component)
	assert.Equal(t, first[KeyApp].Component, second[KeyApp].Component)
}
