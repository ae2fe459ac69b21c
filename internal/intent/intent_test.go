package intent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hal9000y/mail-agent/internal/draft"
	"github.com/hal9000y/mail-agent/internal/intent"
	"github.com/hal9000y/mail-agent/internal/llm"
)

type modelMock struct {
	CompleteFunc func(ctx context.Context, p llm.Prompt) (string, error)
	calls        []llm.Prompt
}

func (m *modelMock) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	m.calls = append(m.calls, p)
	return m.CompleteFunc(ctx, p)
}

func replying(reply string) *modelMock {
	return &modelMock{CompleteFunc: func(_ context.Context, _ llm.Prompt) (string, error) {
		return reply, nil
	}}
}

func TestResolveWellFormed(t *testing.T) {
	cases := []struct {
		name     string
		reply    string
		expected intent.Directive
	}{
		{
			name:     "none",
			reply:    `{"function": "none"}`,
			expected: intent.None{},
		},
		{
			name:     "summarize",
			reply:    `{"function": "summarize_latest_email"}`,
			expected: intent.SummarizeLatest{},
		},
		{
			name:  "send_email",
			reply: `{"function": "send_email", "args": {"recipient": "a@b.com", "subject": "Hi", "body": "Hello!"}}`,
			expected: intent.SendEmail{Email: draft.Email{
				Recipient: "a@b.com", Subject: "Hi", Body: "Hello!",
			}},
		},
		{
			name:     "send_email_partial_args",
			reply:    `{"function": "send_email", "args": {"recipient": "a@b.com"}}`,
			expected: intent.SendEmail{Email: draft.Email{Recipient: "a@b.com"}},
		},
		{
			name:     "ask_missing_info",
			reply:    `{"function": "ask_missing_info", "missing": ["subject", "body"]}`,
			expected: intent.AskMissingInfo{Missing: []draft.Field{draft.FieldSubject, draft.FieldBody}},
		},
	}

	for _, tc := range cases {
		for _, wrap := range []struct {
			name string
			fn   func(string) string
		}{
			{name: "bare", fn: func(s string) string { return s }},
			{name: "fenced_json", fn: func(s string) string { return "```json\n" + s + "\n```" }},
			{name: "fenced_plain", fn: func(s string) string { return "```\n" + s + "\n```" }},
		} {
			t.Run(tc.name+"/"+wrap.name, func(t *testing.T) {
				model := replying(wrap.fn(tc.reply))
				r := intent.NewResolver(model, zaptest.NewLogger(t))

				got, err := r.Resolve(context.Background(), "user text")
				require.NoError(t, err)
				assert.Equal(t, tc.expected, got)

				require.Len(t, model.calls, 1)
				assert.Equal(t, "user text", model.calls[0].User)
				assert.Contains(t, model.calls[0].System, `{"function": "ask_missing_info", "missing": ["recipient", ...]}`)
			})
		}
	}
}

func TestResolveMalformed(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{name: "prose", reply: "I think you want to send an email."},
		{name: "bare_function_name", reply: "send_email"},
		{name: "unknown_function", reply: `{"function": "book_flight"}`},
		{name: "missing_function", reply: `{"args": {"recipient": "a@b.com"}}`},
		{name: "array", reply: `[{"function": "none"}]`},
		{name: "null", reply: `null`},
		{name: "extra_field_on_none", reply: `{"function": "none", "reason": "off topic"}`},
		{name: "send_without_args", reply: `{"function": "send_email"}`},
		{name: "send_with_unknown_arg", reply: `{"function": "send_email", "args": {"recipient": "a@b.com", "cc": "c@d.com"}}`},
		{name: "send_with_non_string_arg", reply: `{"function": "send_email", "args": {"recipient": 42}}`},
		{name: "ask_with_unknown_field", reply: `{"function": "ask_missing_info", "missing": ["attachment"]}`},
		{name: "ask_with_empty_list", reply: `{"function": "ask_missing_info", "missing": []}`},
		{name: "ask_without_list", reply: `{"function": "ask_missing_info"}`},
		{name: "truncated", reply: "```json\n{\"function\": \"send_em"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := intent.NewResolver(replying(tc.reply), zaptest.NewLogger(t))

			got, err := r.Resolve(context.Background(), "anything")
			require.Error(t, err)
			assert.Nil(t, got)

			var perr *intent.ParseError
			assert.True(t, errors.As(err, &perr), "expected *intent.ParseError, got %T", err)
		})
	}
}

func TestResolveModelFailure(t *testing.T) {
	model := &modelMock{CompleteFunc: func(_ context.Context, _ llm.Prompt) (string, error) {
		return "", errors.New("connection refused")
	}}

	_, err := intent.NewResolver(model, zaptest.NewLogger(t)).Resolve(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	var perr *intent.ParseError
	assert.False(t, errors.As(err, &perr))
}

type handlerMock struct {
	called []string
}

func (h *handlerMock) SendEmail(_ context.Context, _ intent.SendEmail) error {
	h.called = append(h.called, intent.FuncSendEmail)
	return nil
}

func (h *handlerMock) SummarizeLatest(_ context.Context, _ intent.SummarizeLatest) error {
	h.called = append(h.called, intent.FuncSummarizeLatest)
	return nil
}

func (h *handlerMock) AskMissingInfo(_ context.Context, _ intent.AskMissingInfo) error {
	h.called = append(h.called, intent.FuncAskMissingInfo)
	return nil
}

func (h *handlerMock) None(_ context.Context, _ intent.None) error {
	h.called = append(h.called, intent.FuncNone)
	return nil
}

func TestApplyDispatchesByVariant(t *testing.T) {
	h := &handlerMock{}
	directives := []intent.Directive{
		intent.SendEmail{}, intent.SummarizeLatest{}, intent.AskMissingInfo{}, intent.None{},
	}

	for _, d := range directives {
		require.NoError(t, d.Apply(context.Background(), h))
	}

	assert.Equal(t, []string{
		intent.FuncSendEmail, intent.FuncSummarizeLatest, intent.FuncAskMissingInfo, intent.FuncNone,
	}, h.called)
	for i, d := range directives {
		assert.Equal(t, h.called[i], d.Name())
	}
}
