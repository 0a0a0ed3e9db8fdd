package llm

import "context"

type phaseKey struct{}

// WithPhase tags ctx with the name of the pipeline phase issuing the
// call. Phases show up in logs and let fakes script per-phase output.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey{}, phase)
}

// PhaseFrom returns the phase tag, or "" when absent.
func PhaseFrom(ctx context.Context) string {
	if v, ok := ctx.Value(phaseKey{}).(string); ok {
		return v
	}
	return ""
}
