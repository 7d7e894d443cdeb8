package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldScene is the standardized structured logging key for scene identifiers.
	FieldScene = "scene"
	// FieldMonitor is the standardized structured logging key for monitor identifiers.
	FieldMonitor = "monitor"
	// FieldSession is the standardized structured logging key for render session IDs.
	FieldSession = "session_id"
	// FieldTransport is the standardized structured logging key for the render transport.
	FieldTransport = "transport"
	// FieldState is the standardized structured logging key for session states.
	FieldState = "state"
)

type contextKey string

const (
	sceneContextKey   contextKey = "scenewall.scene"
	monitorContextKey contextKey = "scenewall.monitor"
)

// WithScene stores a scene identifier on the context for log enrichment.
func WithScene(ctx context.Context, scene string) context.Context {
	return context.WithValue(ctx, sceneContextKey, scene)
}

// WithMonitor stores a monitor identifier on the context for log enrichment.
func WithMonitor(ctx context.Context, monitor string) context.Context {
	return context.WithValue(ctx, monitorContextKey, monitor)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if scene, ok := ctx.Value(sceneContextKey).(string); ok && scene != "" {
		fields = append(fields, slog.String(FieldScene, scene))
	}
	if monitor, ok := ctx.Value(monitorContextKey).(string); ok && monitor != "" {
		fields = append(fields, slog.String(FieldMonitor, monitor))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
