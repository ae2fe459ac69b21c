package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hal9000y/mail-agent/internal/draft"
	"github.com/hal9000y/mail-agent/internal/intent"
	"github.com/hal9000y/mail-agent/internal/mailbox"
	"github.com/hal9000y/mail-agent/internal/metrics"
)

// Farewell is printed when the loop ends.
const Farewell = "Goodbye!"

// NotComposedMessage is shown when regeneration fails.
const NotComposedMessage = "Couldn't compose the email. Please try again with more detail."

// ErrNotComposed is returned when subject and body could not be regenerated.
var ErrNotComposed = errors.New("email could not be composed")

var exitKeywords = map[string]bool{"quit": true, "exit": true, "q": true}

// Outcome labels how a turn ended.
type Outcome string

// Turn outcomes.
const (
	OutcomeOK         Outcome = "ok"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeParse      Outcome = "parse_error"
	OutcomeValidation Outcome = "invalid"
	OutcomeTransport  Outcome = "transport_error"
	OutcomeError      Outcome = "error"
)

type resolver interface {
	Resolve(ctx context.Context, text string) (intent.Directive, error)
}

type regenerator interface {
	Regenerate(ctx context.Context, recipient, description string) (draft.Email, bool)
}

// Session is the interactive command loop. It handles one turn at a time.
type Session struct {
	resolver resolver
	regen    regenerator
	exec     *Executor
	io       *Prompter
	m        *metrics.Metrics
	log      *zap.Logger
}

// NewSession creates a Session. m may be nil.
func NewSession(r resolver, regen regenerator, exec *Executor, p *Prompter, m *metrics.Metrics, log *zap.Logger) *Session {
	return &Session{
		resolver: r,
		regen:    regen,
		exec:     exec,
		io:       p,
		m:        m,
		log:      log,
	}
}

// Run reads instructions until an exit keyword, end of input or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.io.Notice(`Type an instruction, or "quit" to leave.`)

	for {
		if ctx.Err() != nil {
			s.io.Println(Farewell)
			return nil
		}

		line, err := s.io.ReadLine("> ")
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("ReadLine failed: %w", err)
		}

		switch {
		case exitKeywords[strings.ToLower(line)]:
			s.io.Println(Farewell)
			return nil
		case line != "":
			s.Turn(ctx, line)
		}

		if errors.Is(err, io.EOF) {
			s.io.Println(Farewell)
			return nil
		}
	}
}

// Turn resolves and executes a single instruction and reports the result. It
// never returns an error: every failure is printed and the loop goes on.
func (s *Session) Turn(ctx context.Context, line string) Outcome {
	log := s.log.With(zap.String("turn_id", uuid.NewString()))
	log.Debug("turn started", zap.String("input", line))

	d, report, err := s.turn(ctx, log, line)
	outcome := s.report(report, err)

	name := "unresolved"
	if d != nil {
		name = d.Name()
	}
	if s.m != nil {
		s.m.Turns.WithLabelValues(name, string(outcome)).Inc()
	}
	log.Info("turn finished", zap.String("directive", name), zap.String("outcome", string(outcome)), zap.Error(err))

	return outcome
}

func (s *Session) turn(ctx context.Context, log *zap.Logger, line string) (intent.Directive, Report, error) {
	d, err := s.resolver.Resolve(ctx, line)
	if err != nil {
		return nil, Report{}, err
	}

	switch v := d.(type) {
	case intent.AskMissingInfo:
		e, err := s.askMissing(v.Missing)
		if err != nil {
			return d, Report{}, err
		}
		if e.Recipient == "" {
			if addr, ok := draft.FindAddress(line); ok {
				e.Recipient = addr
			}
		}
		d, err = s.repair(ctx, log, line, e)
		if err != nil {
			return d, Report{}, err
		}
	case intent.SendEmail:
		d, err = s.repair(ctx, log, line, v.Email)
		if err != nil {
			return d, Report{}, err
		}
	}

	report, err := s.exec.Execute(ctx, d)
	return d, report, err
}

// askMissing collects literal values for fields, in order.
func (s *Session) askMissing(fields []draft.Field) (draft.Email, error) {
	var e draft.Email
	for _, f := range fields {
		value, err := s.io.ReadLine(fmt.Sprintf("Please provide the %s: ", f))
		if err != nil && !errors.Is(err, io.EOF) {
			return draft.Email{}, err
		}
		e.Set(f, value)
	}
	return e, nil
}

// repair fixes an invalid email: the recipient is asked from the user and an
// invalid subject or body is regenerated from the original instruction.
func (s *Session) repair(ctx context.Context, log *zap.Logger, line string, e draft.Email) (intent.Directive, error) {
	err := e.Validate()
	if err == nil {
		return intent.SendEmail{Email: e}, nil
	}

	var verr *draft.ValidationError
	if !errors.As(err, &verr) {
		return intent.SendEmail{Email: e}, err
	}
	log.Debug("email arguments invalid", zap.Error(verr))

	if verr.Has(draft.FieldRecipient) {
		recipient, rerr := s.io.ReadLine("Recipient email address: ")
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return intent.SendEmail{Email: e}, rerr
		}
		e.Recipient = recipient
		if !draft.IsAddress(e.Recipient) {
			return intent.SendEmail{Email: e}, e.Validate()
		}
	}

	if verr.Has(draft.FieldSubject) || verr.Has(draft.FieldBody) {
		regenerated, ok := s.regen.Regenerate(ctx, e.Recipient, draft.DescribeIntent(line, e.Recipient))
		if !ok {
			return intent.SendEmail{Email: e}, ErrNotComposed
		}
		// Valid values, typed or resolved, are kept.
		if verr.Has(draft.FieldSubject) {
			e.Subject = regenerated.Subject
		}
		if verr.Has(draft.FieldBody) {
			e.Body = regenerated.Body
		}
	}

	return intent.SendEmail{Email: e}, nil
}

func (s *Session) report(r Report, err error) Outcome {
	var (
		perr *intent.ParseError
		verr *draft.ValidationError
		terr *mailbox.TransportError
	)

	switch {
	case err == nil:
		if r.Title != "" {
			s.io.Title(r.Title)
		}
		s.io.Println(r.Text)
		return OutcomeOK
	case errors.Is(err, ErrCancelled):
		s.io.Notice(CancelledMessage)
		return OutcomeCancelled
	case errors.As(err, &perr):
		s.io.Failure("Sorry, I couldn't understand that request. Please rephrase it.")
		return OutcomeParse
	case errors.As(err, &verr):
		s.io.Failure("Can't send: " + strings.TrimPrefix(verr.Error(), "invalid email arguments: "))
		return OutcomeValidation
	case errors.As(err, &terr):
		s.io.Failure(terr.Error())
		return OutcomeTransport
	case errors.Is(err, mailbox.ErrNoTextBody):
		s.io.Failure(NoTextBodyMessage)
		return OutcomeError
	case errors.Is(err, ErrNotComposed):
		s.io.Failure(NotComposedMessage)
		return OutcomeError
	default:
		s.io.Failure("Error: " + err.Error())
		return OutcomeError
	}
}
