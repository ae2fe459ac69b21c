package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-agent/internal/intent"
)

// SendEmailResponse reports the delivery.
type SendEmailResponse struct {
	Status    string `json:"status" jsonschema:"sent on success"`
	Message   string `json:"message" jsonschema:"human readable outcome"`
	Recipient string `json:"recipient" jsonschema:"the recipient the email was sent to"`
}

// NewSendEmail creates a new SendEmail tool.
func NewSendEmail(exec executor) *SendEmail {
	return &SendEmail{exec: exec}
}

// SendEmail validates and sends an email.
type SendEmail struct {
	exec executor
}

// SendEmail sends the requested email. Invalid arguments are rejected before
// anything is sent.
func (t *SendEmail) SendEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EmailArguments,
) (*mcp.CallToolResult, SendEmailResponse, error) {
	e := input.Email()

	report, err := t.exec.Execute(ctx, intent.SendEmail{Email: e})
	if err != nil {
		return nil, SendEmailResponse{}, fmt.Errorf("send email failed: %w", err)
	}

	return nil, SendEmailResponse{
		Status:    "sent",
		Message:   report.String(),
		Recipient: e.Recipient,
	}, nil
}
