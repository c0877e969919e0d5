package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies user_id and request_id from the event context onto log
// events emitted with .Ctx(ctx).
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if id := UserID(ctx); id != "" {
		e.Str(string(userIDKey), id)
	}
	if id := RequestID(ctx); id != "" {
		e.Str(string(requestIDKey), id)
	}
}
