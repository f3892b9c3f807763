package logging

import (
	"context"
	"maps"
)

type fieldsKey struct{}

// ContextWithFields layers fields over any already stored on ctx. Loggers
// created WithContext(ctx) add them to every line.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// ContextWithRequestID stores id under FieldRequestID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return ContextWithFields(ctx, map[string]any{FieldRequestID: id})
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	return maps.Clone(fields)
}

// RequestID returns the id stored by ContextWithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	id, _ := fields[FieldRequestID].(string)
	return id
}
