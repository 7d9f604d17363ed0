// Package logging builds the zap logger used by the command line tools and
// adapts resolver trace events to it.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/syllog/pkg/syllog/config"
	"github.com/cognicore/syllog/pkg/syllog/resolve"
)

// New builds a logger from the logging section of the config. verbose forces
// debug level.
func New(cfg config.Logging, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ZapTracer writes resolver events at debug level.
type ZapTracer struct {
	Logger *zap.Logger
}

// NewTracer returns a tracer that logs through l
func NewTracer(l *zap.Logger) ZapTracer {
	return ZapTracer{Logger: l.Named("trace")}
}

// Trace implements resolve.Tracer.
func (t ZapTracer) Trace(ev resolve.Event) {
	ce := t.Logger.Check(zapcore.DebugLevel, ev.Kind.String())
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.Int("depth", ev.Depth),
		zap.Stringer("goal", ev.Goal),
	}
	if ev.Rule.Head.Pred != "" {
		fields = append(fields, zap.Stringer("rule", ev.Rule))
	}
	ce.Write(fields...)
}
