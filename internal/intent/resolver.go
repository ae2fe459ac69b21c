package intent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hal9000y/mail-agent/internal/fence"
	"github.com/hal9000y/mail-agent/internal/llm"
)

const systemInstruction = `You are the command interpreter of an email assistant. The assistant can do exactly two things:
send an email, or summarize the latest unread email in the user's inbox.

Classify the user's request and respond with ONLY one JSON object, choosing exactly one of these shapes:

{"function": "none"}
{"function": "summarize_latest_email"}
{"function": "send_email", "args": {"recipient": "...", "subject": "...", "body": "..."}}
{"function": "ask_missing_info", "missing": ["recipient", ...]}

Rules:
- Use "none" for anything that is neither sending an email nor summarizing the latest email.
- Use "send_email" when the recipient address is known. Write a complete subject and body from the request;
  never leave placeholders such as [Your Name].
- Use "ask_missing_info" when you cannot send without more information. "missing" lists, in order, only
  names from "recipient", "subject" and "body".
- Do not add any other field or any text outside the JSON object.

Examples:

User: "summarize my latest email"
{"function": "summarize_latest_email"}

User: "send an email to a@b.com saying hi"
{"function": "send_email", "args": {"recipient": "a@b.com", "subject": "Hi", "body": "Hi,\n\nJust wanted to say hi!"}}

User: "email my landlord"
{"function": "ask_missing_info", "missing": ["recipient", "subject", "body"]}

User: "book me a flight"
{"function": "none"}`

// Resolver classifies instructions through the inference service.
type Resolver struct {
	model llm.Model
	log   *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(model llm.Model, log *zap.Logger) *Resolver {
	return &Resolver{model: model, log: log}
}

// Resolve asks the model to classify text and decodes the reply. Replies that do
// not decode are returned as *ParseError.
func (r *Resolver) Resolve(ctx context.Context, text string) (Directive, error) {
	reply, err := r.model.Complete(llm.WithPurpose(ctx, "resolve"), llm.Prompt{
		System: systemInstruction,
		User:   text,
	})
	if err != nil {
		return nil, fmt.Errorf("model.Complete failed: %w", err)
	}

	d, err := Decode(fence.Unwrap(reply))
	if err != nil {
		r.log.Warn("model reply rejected", zap.Error(err), zap.String("reply", reply))
		return nil, err
	}

	r.log.Debug("instruction resolved", zap.String("directive", d.Name()))

	return d, nil
}
