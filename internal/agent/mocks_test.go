package agent_test

import (
	"context"
	"errors"
	"strings"

	"github.com/hal9000y/mail-agent/internal/draft"
	"github.com/hal9000y/mail-agent/internal/llm"
)

type senderMock struct {
	SendFunc func(ctx context.Context, e draft.Email) error
	calls    []draft.Email
}

func (m *senderMock) Send(ctx context.Context, e draft.Email) error {
	m.calls = append(m.calls, e)
	if m.SendFunc == nil {
		return nil
	}
	return m.SendFunc(ctx, e)
}

type readerMock struct {
	LatestUnreadBodyFunc func(ctx context.Context) (string, error)
	calls                int
}

func (m *readerMock) LatestUnreadBody(ctx context.Context) (string, error) {
	m.calls++
	if m.LatestUnreadBodyFunc == nil {
		return "", errors.New("unexpected LatestUnreadBody call")
	}
	return m.LatestUnreadBodyFunc(ctx)
}

type modelMock struct {
	CompleteFunc func(ctx context.Context, p llm.Prompt) (string, error)
	calls        []llm.Prompt
}

func (m *modelMock) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	m.calls = append(m.calls, p)
	if m.CompleteFunc == nil {
		return "", errors.New("unexpected Complete call")
	}
	return m.CompleteFunc(ctx, p)
}

// scriptedModel answers with replies in order.
func scriptedModel(replies ...string) *modelMock {
	m := &modelMock{}
	m.CompleteFunc = func(context.Context, llm.Prompt) (string, error) {
		if len(m.calls) > len(replies) {
			return "", errors.New("no scripted reply left")
		}
		return replies[len(m.calls)-1], nil
	}
	return m
}

type confirmerMock struct {
	ConfirmFunc func(ctx context.Context, e draft.Email) (bool, error)
	calls       []draft.Email
}

func (m *confirmerMock) Confirm(ctx context.Context, e draft.Email) (bool, error) {
	m.calls = append(m.calls, e)
	return m.ConfirmFunc(ctx, e)
}

type regeneratorMock struct {
	RegenerateFunc func(ctx context.Context, recipient, description string) (draft.Email, bool)
	calls          [][2]string
}

func (m *regeneratorMock) Regenerate(ctx context.Context, recipient, description string) (draft.Email, bool) {
	m.calls = append(m.calls, [2]string{recipient, description})
	if m.RegenerateFunc == nil {
		return draft.Email{}, false
	}
	return m.RegenerateFunc(ctx, recipient, description)
}

func countPrefix(prompts []llm.Prompt, prefix string) int {
	n := 0
	for _, p := range prompts {
		if strings.HasPrefix(p.User, prefix) {
			n++
		}
	}
	return n
}
