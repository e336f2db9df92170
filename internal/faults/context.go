package faults

import "context"

type contextKey int

const (
	identifierKey contextKey = iota
	stageKey
	runIDKey
)

// WithIdentifier attaches the program identifier under operation to the context.
func WithIdentifier(ctx context.Context, identifier string) context.Context {
	return context.WithValue(ctx, identifierKey, identifier)
}

// IdentifierFromContext returns the program identifier under operation, if any.
func IdentifierFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(identifierKey).(string)
	return v, ok && v != ""
}

// WithStage attaches the rename state-machine stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name, if any.
func StageFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(stageKey).(string)
	return v, ok && v != ""
}

// WithRunID attaches a batch run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the batch run identifier, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}
