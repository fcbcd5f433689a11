package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/grouphash/pkg/errors"
	"github.com/arthur-debert/grouphash/pkg/event"
	"github.com/arthur-debert/grouphash/pkg/rules"
	"github.com/arthur-debert/grouphash/pkg/variants"
)

func ruleSet(t *testing.T, lines ...string) *rules.RuleSet {
	t.Helper()
	var parsed []*rules.Rule
	for _, line := range lines {
		rule, err := rules.ParseRule(line)
		require.NoError(t, err, line)
		parsed = append(parsed, rule)
	}
	rs, err := rules.NewRuleSet(parsed, rules.CurrentVersion)
	require.NoError(t, err)
	return rs
}

func databaseEvent() *event.Event {
	return &event.Event{
		Platform: "cocoa",
		Exceptions: []event.Exception{{
			Type:  "DatabaseUnavailable",
			Value: "connection refused",
			Stacktrace: &event.Stacktrace{
				Frames: []event.Frame{
					{Module: "UIKit", Function: "sendEvent", Package: "UIKit"},
					{Module: "Acme.DB", Function: "connect", Package: "foo.dylib", InApp: true},
				},
			},
		}},
	}
}

func TestEvaluate_NilEvent(t *testing.T) {
	eng := New(ruleSet(t, `type:"X" -> x`))

	result, err := eng.Evaluate(nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrEventInvalid))
}

func TestEvaluate_CustomFingerprintScenario(t *testing.T) {
	// type:"DatabaseUnavailable" -> "{{ package }}" against an event
	// whose crashing frame's package is foo.dylib
	eng := New(ruleSet(t, `type:"DatabaseUnavailable" -> "{{ package }}"`))

	result, err := eng.Evaluate(databaseEvent())
	require.NoError(t, err)

	custom := result.Variants[variants.KeyCustomFingerprint]
	require.NotNil(t, custom)
	assert.True(t, custom.Contributes)
	assert.Equal(t, []string{"foo.dylib"}, custom.Component.Values)
	assert.NotEmpty(t, custom.Hash)

	for _, key := range []variants.Key{variants.KeyApp, variants.KeySystem} {
		variant := result.Variants[key]
		require.NotNil(t, variant, string(key))
		assert.False(t, variant.Contributes, string(key))
		assert.Equal(t, variants.HintCustomFingerprintPrecedence, variant.Hint)
		assert.Empty(t, variant.Hash, string(key))
	}

	assert.Equal(t, BasisFingerprint, result.Metadata.HashBasis)
	assert.Equal(t, custom.Hash, result.PrimaryHash())
}

func TestEvaluate_DefaultGroupingScenario(t *testing.T) {
	// No rule matches: app and system variants both contribute, the app
	// hash differs from the system hash because it covers fewer frames
	eng := New(ruleSet(t, `type:"SomethingElse" -> other`))

	result, err := eng.Evaluate(databaseEvent())
	require.NoError(t, err)

	app := result.Variants[variants.KeyApp]
	system := result.Variants[variants.KeySystem]
	require.NotNil(t, app)
	require.NotNil(t, system)

	assert.True(t, app.Contributes)
	assert.True(t, system.Contributes)
	assert.NotEmpty(t, app.Hash)
	assert.NotEmpty(t, system.Hash)
	assert.NotEqual(t, app.Hash, system.Hash)

	assert.Equal(t, BasisStacktrace, result.Metadata.HashBasis)
	assert.Equal(t, "exception", result.Metadata.HashingMetadata["stacktrace_location"])
	assert.Equal(t, "in_app", result.Metadata.HashingMetadata["stacktrace_type"])
	assert.Equal(t, "1", result.Metadata.HashingMetadata["num_stacktraces"])
	assert.NotContains(t, result.Metadata.HashingMetadata, "chained_exception")

	// The app variant wins as primary
	assert.Equal(t, app.Hash, result.PrimaryHash())
}

func TestEvaluate_EmptyRenderedFingerprint(t *testing.T) {
	// {{ package }} renders empty for both events; the rule says to group
	// by package, so they land in one group, and the fingerprint variant
	// stays consistent with its component.
	eng := New(ruleSet(t, `type:"*" -> "{{ package }}"`))

	first := &event.Event{
		Exceptions: []event.Exception{{
			Type:       "RequestFailed",
			Stacktrace: &event.Stacktrace{Frames: []event.Frame{{Module: "app.http", Function: "get", InApp: true}}},
		}},
	}
	second := &event.Event{
		Exceptions: []event.Exception{{
			Type:       "SocketTimeout",
			Stacktrace: &event.Stacktrace{Frames: []event.Frame{{Module: "app.net", Function: "read", InApp: true}}},
		}},
	}

	resultFirst, err := eng.Evaluate(first)
	require.NoError(t, err)
	resultSecond, err := eng.Evaluate(second)
	require.NoError(t, err)

	for _, result := range []*Result{resultFirst, resultSecond} {
		custom := result.Variants[variants.KeyCustomFingerprint]
		require.NotNil(t, custom)
		assert.True(t, custom.Contributes)
		assert.True(t, custom.Component.Contributes)
		assert.NotEmpty(t, custom.Hash)
	}
	assert.Equal(t, resultFirst.PrimaryHash(), resultSecond.PrimaryHash())

	// A resolvable package yields a different group
	withPackage, err := eng.Evaluate(databaseEvent())
	require.NoError(t, err)
	assert.NotEqual(t, resultFirst.PrimaryHash(), withPackage.PrimaryHash())
}

func TestEvaluate_Determinism(t *testing.T) {
	eng := New(ruleSet(t, `type:"DatabaseUnavailable" -> "{{ package }}"`))

	first, err := eng.Evaluate(databaseEvent())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := eng.Evaluate(databaseEvent())
		require.NoError(t, err)
		assert.Equal(t, first.PrimaryHash(), again.PrimaryHash())
		assert.Equal(t, first.Metadata, again.Metadata)
		for key, variant := range first.Variants {
			assert.Equal(t, variant.Hash, again.Variants[key].Hash, string(key))
		}
	}
}

func TestEvaluate_ChainedExceptionMetadata(t *testing.T) {
	eng := New(ruleSet(t, `type:"NeverMatches" -> x`))

	e := &event.Event{
		Exceptions: []event.Exception{
			{
				Type:       "RequestFailed",
				Stacktrace: &event.Stacktrace{Frames: []event.Frame{{Module: "app.http", InApp: true}}},
			},
			{
				Type:       "SocketTimeout",
				Stacktrace: &event.Stacktrace{Frames: []event.Frame{{Module: "app.net", InApp: true}}},
			},
		},
	}

	result, err := eng.Evaluate(e)
	require.NoError(t, err)

	assert.Equal(t, "true", result.Metadata.HashingMetadata["chained_exception"])
	assert.Equal(t, "2", result.Metadata.HashingMetadata["num_stacktraces"])
}

func TestEvaluate_SystemOnlyStacktraceType(t *testing.T) {
	eng := New(ruleSet(t, `type:"NeverMatches" -> x`))

	e := &event.Event{
		Exceptions: []event.Exception{{
			Type:       "Panic",
			Stacktrace: &event.Stacktrace{Frames: []event.Frame{{Module: "runtime"}}},
		}},
	}

	result, err := eng.Evaluate(e)
	require.NoError(t, err)

	assert.False(t, result.Variants[variants.KeyApp].Contributes)
	assert.Equal(t, "system", result.Metadata.HashingMetadata["stacktrace_type"])
	assert.Equal(t, result.Variants[variants.KeySystem].Hash, result.PrimaryHash())
}

func TestEvaluate_MessageBasis(t *testing.T) {
	eng := New(ruleSet(t, `type:"NeverMatches" -> x`))

	result, err := eng.Evaluate(&event.Event{Message: "disk full"})
	require.NoError(t, err)

	assert.Equal(t, BasisMessage, result.Metadata.HashBasis)
	message := result.Variants[variants.KeyMessage]
	require.NotNil(t, message)
	assert.True(t, message.Contributes)
	assert.Equal(t, message.Hash, result.PrimaryHash())
}

func TestEvaluate_FallbackBasis(t *testing.T) {
	eng := New(ruleSet(t, `type:"NeverMatches" -> x`))

	result, err := eng.Evaluate(&event.Event{})
	require.NoError(t, err)

	assert.Equal(t, BasisFallback, result.Metadata.HashBasis)
	assert.Empty(t, result.PrimaryHash())
}

func TestEvaluate_HybridFingerprintBasis(t *testing.T) {
	eng := New(ruleSet(t, `type:"DatabaseUnavailable" -> "{{ default }}" shard-7`))

	result, err := eng.Evaluate(databaseEvent())
	require.NoError(t, err)

	assert.Equal(t, BasisHybridFingerprint, result.Metadata.HashBasis)
	assert.Nil(t, result.Variants[variants.KeyCustomFingerprint])
	assert.True(t, result.Variants[variants.KeyApp].Contributes)

	// The salt changes the hash relative to an unsalted evaluation
	unsalted, err := New(ruleSet(t, `type:"Nope" -> x`)).Evaluate(databaseEvent())
	require.NoError(t, err)
	assert.NotEqual(t,
		unsalted.Variants[variants.KeyApp].Hash,
		result.Variants[variants.KeyApp].Hash)
}

func TestReload_SwapsAtomically(t *testing.T) {
	eng := New(ruleSet(t, `type:"DatabaseUnavailable" -> before`))

	result, err := eng.Evaluate(databaseEvent())
	require.NoError(t, err)
	custom := result.Variants[variants.KeyCustomFingerprint]
	require.NotNil(t, custom)
	assert.Equal(t, []string{"before"}, custom.Component.Values)

	eng.Reload(ruleSet(t, `type:"DatabaseUnavailable" -> after`))

	result, err = eng.Evaluate(databaseEvent())
	require.NoError(t, err)
	custom = result.Variants[variants.KeyCustomFingerprint]
	require.NotNil(t, custom)
	assert.Equal(t, []string{"after"}, custom.Component.Values)
}

func TestEvaluate_ConcurrentUse(t *testing.T) {
	eng := New(ruleSet(t, `type:"DatabaseUnavailable" -> "{{ package }}"`))

	baseline, err := eng.Evaluate(databaseEvent())
	require.NoError(t, err)
	want := baseline.PrimaryHash()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				result, err := eng.Evaluate(databaseEvent())
				assert.NoError(t, err)
				assert.Equal(t, want, result.PrimaryHash())
			}
		}()
	}
	wg.Wait()
}
