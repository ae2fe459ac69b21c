// Package intent turns a free-text instruction into a Directive by asking the
// inference service and strictly decoding its reply.
package intent

import (
	"context"

	"github.com/hal9000y/mail-agent/internal/draft"
)

// Function names of the structured reply.
const (
	FuncNone            = "none"
	FuncSummarizeLatest = "summarize_latest_email"
	FuncSendEmail       = "send_email"
	FuncAskMissingInfo  = "ask_missing_info"
)

// Handler receives a decoded Directive. Implementing it forces a consumer to
// cover every variant.
type Handler interface {
	SendEmail(ctx context.Context, d SendEmail) error
	SummarizeLatest(ctx context.Context, d SummarizeLatest) error
	AskMissingInfo(ctx context.Context, d AskMissingInfo) error
	None(ctx context.Context, d None) error
}

// Directive is the action decided for a single turn.
type Directive interface {
	// Name is the wire function name of the directive.
	Name() string
	// Apply dispatches the directive to the matching Handler method.
	Apply(ctx context.Context, h Handler) error

	sealed()
}

// SendEmail asks to send an email with the extracted arguments.
type SendEmail struct {
	Email draft.Email
}

// SummarizeLatest asks to summarize the latest unread email.
type SummarizeLatest struct{}

// AskMissingInfo lists the fields the model could not extract, in order.
type AskMissingInfo struct {
	Missing []draft.Field
}

// None means the request is outside what the agent can do.
type None struct{}

func (SendEmail) Name() string       { return FuncSendEmail }
func (SummarizeLatest) Name() string { return FuncSummarizeLatest }
func (AskMissingInfo) Name() string  { return FuncAskMissingInfo }
func (None) Name() string            { return FuncNone }

func (d SendEmail) Apply(ctx context.Context, h Handler) error       { return h.SendEmail(ctx, d) }
func (d SummarizeLatest) Apply(ctx context.Context, h Handler) error { return h.SummarizeLatest(ctx, d) }
func (d AskMissingInfo) Apply(ctx context.Context, h Handler) error  { return h.AskMissingInfo(ctx, d) }
func (d None) Apply(ctx context.Context, h Handler) error            { return h.None(ctx, d) }

func (SendEmail) sealed()       {}
func (SummarizeLatest) sealed() {}
func (AskMissingInfo) sealed()  {}
func (None) sealed()            {}
