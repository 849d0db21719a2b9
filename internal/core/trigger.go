package core

import "context"

// Trigger names what started a run.
type Trigger string

const (
	TriggerCLI      Trigger = "cli"
	TriggerHTTP     Trigger = "http"
	TriggerSchedule Trigger = "schedule"
)

type contextKey string

const ctxKeyTrigger contextKey = "run_trigger"

// ContextWithTrigger records what started the runs made with ctx.
func ContextWithTrigger(ctx context.Context, t Trigger) context.Context {
	return context.WithValue(ctx, ctxKeyTrigger, t)
}

// TriggerFromContext returns the trigger stored by ContextWithTrigger, or "".
func TriggerFromContext(ctx context.Context) Trigger {
	if v, ok := ctx.Value(ctxKeyTrigger).(Trigger); ok {
		return v
	}
	return ""
}
