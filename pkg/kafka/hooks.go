package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook observes message handling. BeforeHandle may enrich the context;
// an error from it skips the handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, km, err)
	}
}

type ctxKey string

const (
	ctxStartTime ctxKey = "kafka_start_time"
	ctxHeaders   ctxKey = "kafka_headers"
)

// WithStartTime stores when handling started.
func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxStartTime, t)
}

// StartTime returns the handling start stored by WithStartTime.
func StartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(ctxStartTime).(time.Time)
	return t, ok
}

// withHeaders exposes the message headers to the handler.
func withHeaders(ctx context.Context, km kafka.Message) context.Context {
	if len(km.Headers) == 0 {
		return ctx
	}
	h := make(map[string]string, len(km.Headers))
	for _, kv := range km.Headers {
		h[kv.Key] = string(kv.Value)
	}
	return context.WithValue(ctx, ctxHeaders, h)
}

// Header returns a header of the message being handled.
func Header(ctx context.Context, key string) string {
	h, _ := ctx.Value(ctxHeaders).(map[string]string)
	return h[key]
}
