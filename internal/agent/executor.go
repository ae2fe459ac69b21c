// Package agent executes resolved directives and runs the interactive command loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hal9000y/mail-agent/internal/draft"
	"github.com/hal9000y/mail-agent/internal/intent"
	"github.com/hal9000y/mail-agent/internal/llm"
	"github.com/hal9000y/mail-agent/internal/mailbox"
)

// Fixed user-facing messages.
const (
	CapabilityMessage = "I can only send an email or summarize the latest one in your inbox."
	SentMessage       = "Email sent successfully."
	SummaryTitle      = "Email Summary:"
	CancelledMessage  = "Email cancelled."
	NoUnreadMessage   = "No unread emails found."
	NoTextBodyMessage = "Couldn't extract email body."
)

// ErrCancelled is returned when the user declines to send.
var ErrCancelled = errors.New("email cancelled")

const summarizeSystem = "You are an assistant that summarizes emails."

// Confirmer approves an email right before it is sent.
type Confirmer interface {
	Confirm(ctx context.Context, e draft.Email) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, e draft.Email) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, e draft.Email) (bool, error) {
	return f(ctx, e)
}

// AutoConfirm approves every email. It is used where the caller already approved.
var AutoConfirm = ConfirmFunc(func(context.Context, draft.Email) (bool, error) { return true, nil })

// Report is the outcome of an executed directive.
type Report struct {
	Title string
	Text  string
}

func (r Report) String() string {
	if r.Title == "" {
		return r.Text
	}
	return r.Title + "\n" + r.Text
}

// Executor carries out a single directive against the mail transports and the model.
type Executor struct {
	sender  mailbox.Sender
	reader  mailbox.Reader
	model   llm.Model
	confirm Confirmer
	log     *zap.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(sender mailbox.Sender, reader mailbox.Reader, model llm.Model, confirm Confirmer, log *zap.Logger) *Executor {
	return &Executor{
		sender:  sender,
		reader:  reader,
		model:   model,
		confirm: confirm,
		log:     log,
	}
}

// Execute runs d and returns what should be shown to the user.
func (e *Executor) Execute(ctx context.Context, d intent.Directive) (Report, error) {
	run := &execution{Executor: e}
	if err := d.Apply(ctx, run); err != nil {
		return Report{}, err
	}
	return run.report, nil
}

type execution struct {
	*Executor
	report Report
}

func (x *execution) SendEmail(ctx context.Context, d intent.SendEmail) error {
	if err := d.Email.Validate(); err != nil {
		return err
	}

	ok, err := x.confirm.Confirm(ctx, d.Email)
	if err != nil {
		return fmt.Errorf("confirm.Confirm failed: %w", err)
	}
	if !ok {
		return ErrCancelled
	}

	if err := x.sender.Send(ctx, d.Email); err != nil {
		return err
	}

	x.report = Report{Text: SentMessage}
	return nil
}

func (x *execution) SummarizeLatest(ctx context.Context, _ intent.SummarizeLatest) error {
	body, err := x.reader.LatestUnreadBody(ctx)
	if errors.Is(err, mailbox.ErrNoUnread) {
		x.report = Report{Text: NoUnreadMessage}
		return nil
	}
	if err != nil {
		return err
	}

	x.log.Debug("summarizing email", zap.Int("body_len", len(body)))

	summary, err := x.model.Complete(llm.WithPurpose(ctx, "summarize"), llm.Prompt{
		System: summarizeSystem,
		User:   "Summarize the following email:\n\n" + body,
	})
	if err != nil {
		return fmt.Errorf("model.Complete failed: %w", err)
	}

	x.report = Report{Title: SummaryTitle, Text: strings.TrimSpace(summary)}
	return nil
}

func (x *execution) AskMissingInfo(_ context.Context, d intent.AskMissingInfo) error {
	problems := make([]draft.Problem, 0, len(d.Missing))
	for _, f := range d.Missing {
		problems = append(problems, draft.Problem{Field: f, Reason: fmt.Sprintf("%s is missing", f)})
	}
	return &draft.ValidationError{Problems: problems}
}

func (x *execution) None(context.Context, intent.None) error {
	x.report = Report{Text: CapabilityMessage}
	return nil
}
