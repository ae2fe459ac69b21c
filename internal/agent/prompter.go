package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hal9000y/mail-agent/internal/draft"
)

type styles struct {
	prompt lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	failed lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		title:  r.NewStyle().Bold(true).Underline(true),
		label:  r.NewStyle().Bold(true),
		failed: r.NewStyle().Foreground(lipgloss.Color("9")),
		muted:  r.NewStyle().Faint(true),
	}
}

// Prompter reads user input line by line and writes styled output.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	styles styles
}

// NewPrompter creates a Prompter over in and out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		styles: newStyles(out),
	}
}

// ReadLine prints prompt and returns the next trimmed line. A final line without
// a newline is returned together with io.EOF.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		_, _ = fmt.Fprint(p.out, p.styles.prompt.Render(prompt))
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("in.ReadString failed: %w", err)
	}

	return strings.TrimSpace(line), err
}

// Confirm shows e and approves it only on an explicit "y".
func (p *Prompter) Confirm(_ context.Context, e draft.Email) (bool, error) {
	p.Println(p.styles.label.Render("To:") + " " + e.Recipient)
	p.Println(p.styles.label.Render("Subject:") + " " + e.Subject)
	p.Println("")
	p.Println(e.Body)
	p.Println("")

	answer, err := p.ReadLine("Send this email? (y/n): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	return strings.EqualFold(answer, "y"), nil
}

// Println writes a line of plain text.
func (p *Prompter) Println(text string) {
	_, _ = fmt.Fprintln(p.out, text)
}

// Title writes a heading line.
func (p *Prompter) Title(text string) {
	p.Println(p.styles.title.Render(text))
}

// Failure writes an error line.
func (p *Prompter) Failure(text string) {
	p.Println(p.styles.failed.Render(text))
}

// Notice writes a de-emphasized line.
func (p *Prompter) Notice(text string) {
	p.Println(p.styles.muted.Render(text))
}
