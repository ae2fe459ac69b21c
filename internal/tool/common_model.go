package tool

import (
	"context"

	"github.com/hal9000y/mail-agent/internal/agent"
	"github.com/hal9000y/mail-agent/internal/draft"
	"github.com/hal9000y/mail-agent/internal/intent"
)

// EmailArguments are the arguments of an email to send. They are both the
// send_email input and the resolved arguments of resolve_instruction.
type EmailArguments struct {
	Recipient string `json:"recipient" jsonschema:"the recipient email address"`
	Subject   string `json:"subject" jsonschema:"the email subject"`
	Body      string `json:"body" jsonschema:"the plain text email body"`
}

func newEmailArguments(e draft.Email) *EmailArguments {
	return &EmailArguments{Recipient: e.Recipient, Subject: e.Subject, Body: e.Body}
}

// Email converts the arguments to a draft.
func (a EmailArguments) Email() draft.Email {
	return draft.Email{Recipient: a.Recipient, Subject: a.Subject, Body: a.Body}
}

type executor interface {
	Execute(ctx context.Context, d intent.Directive) (agent.Report, error)
}

type resolver interface {
	Resolve(ctx context.Context, text string) (intent.Directive, error)
}
