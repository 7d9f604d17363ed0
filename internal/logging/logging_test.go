package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/syllog/pkg/syllog/config"
	"github.com/cognicore/syllog/pkg/syllog/resolve"
	"github.com/cognicore/syllog/pkg/syllog/term"
)

func TestNewHonorsLevel(t *testing.T) {
	logger, err := New(config.Logging{Level: "warn"}, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New(config.Logging{Level: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "verbose forces debug")

	logger, err = New(config.Logging{Level: "info", Development: true}, false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.Logging{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestTracerLogsResolverSteps(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := NewTracer(zap.New(core))

	x := term.NewEvery("x")
	rules := resolve.RuleSlice{
		term.Fact(term.NewAtom("man", term.NewConst("socrates"))),
		term.NewRule(term.NewAtom("mortal", x), term.Pos(term.NewAtom("man", x))),
	}
	r := resolve.New(rules, resolve.WithTracer(tracer))
	require.Equal(t, resolve.Proved, r.Prove(resolve.NewQuery(term.Pos(term.NewAtom("mortal", term.NewConst("socrates"))))))

	require.NotZero(t, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "call", first.Message)
	assert.Equal(t, "mortal(socrates)", first.ContextMap()["goal"])

	matches := logs.FilterMessage("match").All()
	require.NotEmpty(t, matches)
	assert.Equal(t, "mortal(x#1*) :- man(x#1*).", matches[0].ContextMap()["rule"])
}

func TestTracerSilentAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewTracer(zap.New(core)).Trace(resolve.Event{Kind: resolve.EventCall})
	assert.Zero(t, logs.Len())
}
