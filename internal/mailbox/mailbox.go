// Package mailbox sends and reads mail over the configured transports.
package mailbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/hal9000y/mail-agent/internal/draft"
	"github.com/hal9000y/mail-agent/internal/metrics"
)

var (
	// ErrNoUnread is returned when the inbox has no unread message.
	ErrNoUnread = errors.New("no unread emails")
	// ErrNoTextBody is returned when the latest unread message has no readable body.
	ErrNoTextBody = errors.New("no readable email body")
)

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, e draft.Email) error
}

// Reader fetches the body of the latest unread email.
type Reader interface {
	LatestUnreadBody(ctx context.Context) (string, error)
}

// TransportError wraps a network or authentication failure of a mail transport.
type TransportError struct {
	Op        string
	Transport string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s via %s failed: %v", e.Op, e.Transport, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Instrumented counts operations of a Sender and a Reader.
type Instrumented struct {
	transport string
	sender    Sender
	reader    Reader
	m         *metrics.Metrics
}

// InstrumentSender wraps s with metrics collection. A nil m returns s unchanged.
func InstrumentSender(s Sender, transport string, m *metrics.Metrics) Sender {
	if m == nil {
		return s
	}
	return &Instrumented{transport: transport, sender: s, m: m}
}

// InstrumentReader wraps r with metrics collection. A nil m returns r unchanged.
func InstrumentReader(r Reader, transport string, m *metrics.Metrics) Reader {
	if m == nil {
		return r
	}
	return &Instrumented{transport: transport, reader: r, m: m}
}

// Send forwards to the wrapped Sender.
func (i *Instrumented) Send(ctx context.Context, e draft.Email) error {
	err := i.sender.Send(ctx, e)
	i.m.MailOperations.WithLabelValues("send", i.transport, metrics.Result(err)).Inc()
	return err
}

// LatestUnreadBody forwards to the wrapped Reader.
func (i *Instrumented) LatestUnreadBody(ctx context.Context) (string, error) {
	body, err := i.reader.LatestUnreadBody(ctx)
	result := metrics.Result(err)
	if errors.Is(err, ErrNoUnread) {
		result = "empty"
	}
	i.m.MailOperations.WithLabelValues("fetch", i.transport, result).Inc()
	return body, err
}
