package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hal9000y/mail-agent/internal/draft"
)

const directiveSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "oneOf": [
    {
      "type": "object",
      "properties": {"function": {"enum": ["none", "summarize_latest_email"]}},
      "required": ["function"],
      "additionalProperties": false
    },
    {
      "type": "object",
      "properties": {
        "function": {"enum": ["send_email"]},
        "args": {
          "type": "object",
          "properties": {
            "recipient": {"type": "string"},
            "subject": {"type": "string"},
            "body": {"type": "string"}
          },
          "additionalProperties": false
        }
      },
      "required": ["function", "args"],
      "additionalProperties": false
    },
    {
      "type": "object",
      "properties": {
        "function": {"enum": ["ask_missing_info"]},
        "missing": {
          "type": "array",
          "minItems": 1,
          "items": {"enum": ["recipient", "subject", "body"]}
        }
      },
      "required": ["function", "missing"],
      "additionalProperties": false
    }
  ]
}`

var directiveSchema = mustSchema(directiveSchemaJSON)

func mustSchema(raw string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Errorf("gojsonschema.NewSchema failed: %w", err))
	}
	return s
}

// ParseError reports a model reply that does not match any directive shape.
type ParseError struct {
	Reply string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not understand the model reply: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type envelope struct {
	Function string       `json:"function"`
	Args     *draft.Email `json:"args"`
	Missing  []string     `json:"missing"`
}

// Decode parses an unwrapped model reply into a Directive. Anything that is not
// exactly one of the four directive shapes is a *ParseError, never None.
func Decode(payload string) (Directive, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, &ParseError{Reply: payload, Err: fmt.Errorf("json.Unmarshal failed: %w", err)}
	}

	switch env.Function {
	case FuncNone, FuncSummarizeLatest, FuncSendEmail, FuncAskMissingInfo:
	default:
		return nil, &ParseError{Reply: payload, Err: fmt.Errorf("unrecognized function %q", env.Function)}
	}

	res, err := directiveSchema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, &ParseError{Reply: payload, Err: fmt.Errorf("directiveSchema.Validate failed: %w", err)}
	}
	if !res.Valid() {
		return nil, &ParseError{Reply: payload, Err: schemaError(res)}
	}

	switch env.Function {
	case FuncNone:
		return None{}, nil
	case FuncSummarizeLatest:
		return SummarizeLatest{}, nil
	case FuncSendEmail:
		return SendEmail{Email: draft.Email{
			Recipient: strings.TrimSpace(env.Args.Recipient),
			Subject:   strings.TrimSpace(env.Args.Subject),
			Body:      strings.TrimSpace(env.Args.Body),
		}}, nil
	default:
		missing := make([]draft.Field, 0, len(env.Missing))
		for _, name := range env.Missing {
			f, _ := draft.ParseField(name)
			missing = append(missing, f)
		}
		return AskMissingInfo{Missing: missing}, nil
	}
}

func schemaError(res *gojsonschema.Result) error {
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.New("reply does not match any directive shape: " + strings.Join(msgs, "; "))
}
