package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// getOrLoad returns the cached value under key, or calls load and caches
// its result. Errors are never cached. The lookup is traced when the
// context carries a sentry hub.
func getOrLoad[T any](ctx context.Context, c Cache, entity, operation, key string, load func() (T, error)) (T, error) {
	span := startCacheSpan(ctx, entity, operation)
	defer finishSpan(span)

	if cached, ok := c.Get(ctx, key); ok {
		if v, ok := cached.(T); ok {
			setSpanData(span, "hit", true)
			return v, nil
		}
	}
	setSpanData(span, "hit", false)

	v, err := load()
	if err != nil {
		if span != nil {
			span.Status = sentry.SpanStatusInternalError
			span.SetData("error", err.Error())
		}
		return v, err
	}
	c.Set(ctx, key, v, 0)
	return v, nil
}

func startCacheSpan(ctx context.Context, entity, operation string) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}
	span := sentry.StartSpan(ctx, "db.cache")
	span.Description = "cache." + entity + "." + operation
	span.SetData("entity", entity)
	span.SetData("operation", operation)
	return span
}

func setSpanData(span *sentry.Span, key string, value any) {
	if span != nil {
		span.SetData(key, value)
	}
}

func finishSpan(span *sentry.Span) {
	if span == nil {
		return
	}
	if span.Status == sentry.SpanStatusUndefined {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}
