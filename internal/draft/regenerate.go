package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hal9000y/mail-agent/internal/fence"
	"github.com/hal9000y/mail-agent/internal/llm"
)

const regenerateSystem = `You are an assistant that writes emails on behalf of the user.
Given the recipient and a description of what the user wants to say, write the email.

Rules:
- The body must be long, well structured and must not repeat itself.
- Match the emotional tone the situation calls for (warm, apologetic, formal, celebratory...).
- Never leave template placeholders such as ` + PlaceholderMarker + ` or [Recipient Name]; write complete text.
- Respond with ONLY a JSON object with exactly two string fields, "subject" and "body".

Example:
{"subject": "Thank you for yesterday", "body": "Hi Sam,\n\nI wanted to thank you..."}`

// Regenerator asks the inference service to write subject and body from scratch.
type Regenerator struct {
	model llm.Model
	log   *zap.Logger
}

// NewRegenerator creates a Regenerator.
func NewRegenerator(model llm.Model, log *zap.Logger) *Regenerator {
	return &Regenerator{model: model, log: log}
}

// Regenerate composes an email to recipient matching description. The boolean is
// false, with a zero Email, whenever the reply cannot be used; callers must then
// abort the turn.
func (r *Regenerator) Regenerate(ctx context.Context, recipient, description string) (Email, bool) {
	reply, err := r.model.Complete(llm.WithPurpose(ctx, "regenerate"), llm.Prompt{
		System: regenerateSystem,
		User:   fmt.Sprintf("Recipient: %s\nWhat the email should say: %s", recipient, description),
	})
	if err != nil {
		r.log.Warn("regeneration request failed", zap.Error(err))
		return Email{}, false
	}

	var out struct {
		Subject *string `json:"subject"`
		Body    *string `json:"body"`
	}
	if err := json.Unmarshal([]byte(fence.Unwrap(reply)), &out); err != nil {
		r.log.Warn("regeneration reply is not JSON", zap.Error(err), zap.String("reply", reply))
		return Email{}, false
	}
	if out.Subject == nil || out.Body == nil ||
		strings.TrimSpace(*out.Subject) == "" || strings.TrimSpace(*out.Body) == "" {
		r.log.Warn("regeneration reply misses subject or body", zap.String("reply", reply))
		return Email{}, false
	}

	return Email{
		Recipient: recipient,
		Subject:   strings.TrimSpace(*out.Subject),
		Body:      strings.TrimSpace(*out.Body),
	}, true
}
