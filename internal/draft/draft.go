// Package draft holds the email arguments assembled during a turn and the rules
// they must satisfy before anything is sent.
package draft

import (
	"fmt"
	"regexp"
	"strings"
)

// PlaceholderMarker is the template token a model leaves behind when it failed
// to fill in a value.
const PlaceholderMarker = "[Your Name]"

// Field names an email argument.
type Field string

// Email argument fields, in prompting order.
const (
	FieldRecipient Field = "recipient"
	FieldSubject   Field = "subject"
	FieldBody      Field = "body"
)

// Fields lists every email argument field.
var Fields = []Field{FieldRecipient, FieldSubject, FieldBody}

// ParseField maps a field name to a Field.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

var addressPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var addressSearch = regexp.MustCompile(`[^@\s<>()\[\],;:"']+@[^@\s<>()\[\],;:"']+\.[^@\s<>()\[\],;:"']+`)

// Email is the mutable argument record of a send request.
type Email struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Get returns the value of f.
func (e Email) Get(f Field) string {
	switch f {
	case FieldRecipient:
		return e.Recipient
	case FieldSubject:
		return e.Subject
	case FieldBody:
		return e.Body
	}
	return ""
}

// Set overwrites the value of f.
func (e *Email) Set(f Field, value string) {
	switch f {
	case FieldRecipient:
		e.Recipient = value
	case FieldSubject:
		e.Subject = value
	case FieldBody:
		e.Body = value
	}
}

// Validate reports every syntactic problem with e. It does not check that the
// recipient mailbox exists.
func (e Email) Validate() error {
	var problems []Problem

	if !IsAddress(e.Recipient) {
		problems = append(problems, Problem{Field: FieldRecipient, Reason: fmt.Sprintf("%q is not an email address", e.Recipient)})
	}
	if strings.TrimSpace(e.Subject) == "" {
		problems = append(problems, Problem{Field: FieldSubject, Reason: "subject is empty"})
	}
	switch {
	case strings.TrimSpace(e.Body) == "":
		problems = append(problems, Problem{Field: FieldBody, Reason: "body is empty"})
	case strings.Contains(e.Body, PlaceholderMarker):
		problems = append(problems, Problem{Field: FieldBody, Reason: "body contains unresolved placeholder " + PlaceholderMarker})
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// IsAddress reports whether s has the local@domain.tld shape.
func IsAddress(s string) bool {
	return addressPattern.MatchString(strings.TrimSpace(s))
}

// FindAddress returns the first email address mentioned in text.
func FindAddress(text string) (string, bool) {
	m := addressSearch.FindString(text)
	m = strings.TrimRight(m, ".")
	if !IsAddress(m) {
		return "", false
	}
	return m, true
}

// DescribeIntent strips the recipient token out of the raw request, leaving a
// description of what the user wants the email to say.
func DescribeIntent(raw, recipient string) string {
	desc := raw
	if recipient != "" {
		desc = strings.ReplaceAll(desc, recipient, "")
	}
	return strings.Join(strings.Fields(desc), " ")
}

// Problem is a single validation failure.
type Problem struct {
	Field  Field
	Reason string
}

// ValidationError lists the argument problems found by Validate.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	reasons := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		reasons = append(reasons, p.Reason)
	}
	return "invalid email arguments: " + strings.Join(reasons, "; ")
}

// Has reports whether f failed validation.
func (e *ValidationError) Has(f Field) bool {
	for _, p := range e.Problems {
		if p.Field == f {
			return true
		}
	}
	return false
}
