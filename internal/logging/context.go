package logging

import "context"

type ctxArgsKey struct{}

// ContextWith returns a context whose key-value pairs are added to every
// record logged with it, e.g. a request id set once by HTTP middleware.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(ctxArgsKey{}).([]any)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, ctxArgsKey{}, merged)
}

func withContextArgs(ctx context.Context, args []any) []any {
	if ctx == nil {
		return args
	}
	extra, _ := ctx.Value(ctxArgsKey{}).([]any)
	if len(extra) == 0 {
		return args
	}
	return append(append(make([]any, 0, len(extra)+len(args)), extra...), args...)
}
