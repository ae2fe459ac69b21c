package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/mail-agent/internal/draft"
)

const unreadInboxQuery = "is:unread in:inbox"

type gmailAPI interface {
	ListMessages(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
	SendMessage(ctx context.Context, raw []byte) (*gmail.Message, error)
	EmailAddress(ctx context.Context) (string, error)
}

type htmlConverter interface {
	HTML2Text(raw []byte) (string, error)
}

// Gmail sends and reads mail through the Gmail API of the authorized account.
type Gmail struct {
	api  gmailAPI
	conv htmlConverter
	now  func() time.Time
	log  *zap.Logger
}

// NewGmail creates a Gmail transport.
func NewGmail(api gmailAPI, conv htmlConverter, log *zap.Logger) *Gmail {
	return &Gmail{api: api, conv: conv, now: time.Now, log: log}
}

// Send delivers e from the authorized account.
func (g *Gmail) Send(ctx context.Context, e draft.Email) error {
	from, err := g.api.EmailAddress(ctx)
	if err != nil {
		return &TransportError{Op: "send", Transport: "gmail", Err: fmt.Errorf("api.EmailAddress failed: %w", err)}
	}

	msg, err := BuildMessage(from, e, g.now())
	if err != nil {
		return fmt.Errorf("BuildMessage failed: %w", err)
	}

	sent, err := g.api.SendMessage(ctx, msg)
	if err != nil {
		return &TransportError{Op: "send", Transport: "gmail", Err: fmt.Errorf("api.SendMessage failed: %w", err)}
	}

	g.log.Info("email sent", zap.String("transport", "gmail"), zap.String("to", e.Recipient), zap.String("message_id", sent.Id))

	return nil
}

// LatestUnreadBody returns the text of the newest unread inbox message. Unlike
// IMAP, the Gmail API leaves the message unread.
func (g *Gmail) LatestUnreadBody(ctx context.Context) (string, error) {
	list, err := g.api.ListMessages(ctx, unreadInboxQuery, "", 1)
	if err != nil {
		return "", &TransportError{Op: "fetch", Transport: "gmail", Err: fmt.Errorf("api.ListMessages failed: %w", err)}
	}
	if list == nil || len(list.Messages) == 0 {
		return "", ErrNoUnread
	}

	msgID := list.Messages[0].Id
	msg, err := g.api.GetMessage(ctx, msgID)
	if err != nil {
		return "", &TransportError{Op: "fetch", Transport: "gmail", Err: fmt.Errorf("api.GetMessage(%s) failed: %w", msgID, err)}
	}
	if msg.Payload == nil {
		return "", ErrNoTextBody
	}

	textBody, htmlBody := extractMessageBodies(msg.Payload)
	if textBody != "" {
		return textBody, nil
	}
	if htmlBody == "" {
		return "", ErrNoTextBody
	}

	converted, err := g.conv.HTML2Text([]byte(htmlBody))
	if err != nil {
		return "", fmt.Errorf("conv.HTML2Text failed: %w", err)
	}
	if converted == "" {
		return "", ErrNoTextBody
	}

	return converted, nil
}

func extractMessageBodies(payload *gmail.MessagePart) (textBody, htmlBody string) {
	textBody, htmlBody = extractBodyFromPart(payload)

	for _, part := range payload.Parts {
		partText, partHTML := extractMessageBodies(part)
		if textBody == "" {
			textBody = partText
		}
		if htmlBody == "" {
			htmlBody = partHTML
		}
	}

	return textBody, htmlBody
}

func extractBodyFromPart(part *gmail.MessagePart) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" {
		return "", ""
	}

	switch part.MimeType {
	case "text/plain":
		return decodeBase64URL(part.Body.Data), ""
	case "text/html":
		return "", decodeBase64URL(part.Body.Data)
	default:
		return "", ""
	}
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return data
		}
	}
	return string(decoded)
}
