package log

import "context"

// Nop discards everything. FromContext falls back to it so callers never
// nil-check loggers.
type Nop struct{}

func (Nop) With(...any) Logger                           { return Nop{} }
func (Nop) Debug(context.Context, string, ...any)        {}
func (Nop) Info(context.Context, string, ...any)         {}
func (Nop) Warn(context.Context, string, ...any)         {}
func (Nop) Error(context.Context, error, string, ...any) {}
func (Nop) Sync() error                                  { return nil }
