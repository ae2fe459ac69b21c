package tool_test

import (
	"context"
	"errors"

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
