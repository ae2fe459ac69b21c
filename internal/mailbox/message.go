package mailbox

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"

	"github.com/hal9000y/mail-agent/internal/draft"
)

// BuildMessage renders e as an RFC 5322 message from the given address.
func BuildMessage(from string, e draft.Email, now time.Time) ([]byte, error) {
	part, err := enmime.Builder().
		From("", from).
		To("", e.Recipient).
		Subject(e.Subject).
		Date(now).
		Header("Message-ID", messageID(from)).
		Text([]byte(e.Body)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("enmime.Builder.Build failed: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("part.Encode failed: %w", err)
	}

	return buf.Bytes(), nil
}

func messageID(from string) string {
	domain := "localhost"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		domain = from[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// ParseBody extracts the readable text of a raw RFC 5322 message: the text/plain
// part, or the HTML part converted to text when no plain part exists.
func ParseBody(raw []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("enmime.ReadEnvelope failed: %w", err)
	}

	body := strings.TrimSpace(env.Text)
	if body == "" {
		return "", ErrNoTextBody
	}

	return body, nil
}
