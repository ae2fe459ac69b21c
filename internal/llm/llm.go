// Package llm talks to the inference service used for intent classification,
// argument extraction and summarization.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/hal9000y/mail-agent/internal/metrics"
)

// ErrEmptyReply indicates the inference service answered without any content.
var ErrEmptyReply = errors.New("inference service returned an empty reply")

// Prompt is a single-shot request: a fixed system instruction plus the user text.
type Prompt struct {
	System string
	User   string
}

// Model completes prompts.
type Model interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

type purposeKey struct{}

// WithPurpose tags ctx with the reason a completion is requested, used as a metric label.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func purposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return "unknown"
}

// Instrumented records request counts and latency of the wrapped model.
type Instrumented struct {
	next Model
	m    *metrics.Metrics
}

// Instrument wraps next with metrics collection. A nil m returns next unchanged.
func Instrument(next Model, m *metrics.Metrics) Model {
	if m == nil {
		return next
	}
	return &Instrumented{next: next, m: m}
}

// Complete forwards to the wrapped model.
func (i *Instrumented) Complete(ctx context.Context, p Prompt) (string, error) {
	purpose := purposeFrom(ctx)
	start := time.Now()

	reply, err := i.next.Complete(ctx, p)

	i.m.InferenceDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
	i.m.InferenceRequests.WithLabelValues(purpose, metrics.Result(err)).Inc()

	return reply, err
}
