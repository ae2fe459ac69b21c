// Package gservice is a thin client over the Gmail API of the authorized user.
package gservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUserID = "me"

type httpClientSource interface {
	Client(ctx context.Context) (*http.Client, error)
}

// NewGmail creates a Gmail client authorized by src.
func NewGmail(src httpClientSource) *GMail {
	return &GMail{src: src}
}

// GMail wraps the subset of the Gmail API the agent uses.
type GMail struct {
	src  httpClientSource
	opts []option.ClientOption
}

// ListMessages lists message references matching q.
func (m *GMail) ListMessages(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	result, err := svc.Users.Messages.List(gmailUserID).
		Q(q).
		PageToken(pageToken).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	return result, nil
}

// GetMessage fetches a full message.
func (m *GMail) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

// SendMessage sends a raw RFC 5322 message.
func (m *GMail) SendMessage(ctx context.Context, raw []byte) (*gmail.Message, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := svc.Users.Messages.Send(gmailUserID, msg).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Send failed: %w", err)
	}

	return sent, nil
}

// EmailAddress returns the address of the authorized account.
func (m *GMail) EmailAddress(ctx context.Context) (string, error) {
	svc, err := m.newSvc(ctx)
	if err != nil {
		return "", fmt.Errorf("newSvc failed: %w", err)
	}

	profile, err := svc.Users.GetProfile(gmailUserID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("users.GetProfile failed: %w", err)
	}

	return profile.EmailAddress, nil
}

func (m *GMail) newSvc(ctx context.Context) (*gmail.Service, error) {
	clt, err := m.src.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("src.Client failed: %w", err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(clt)}, m.opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return svc, nil
}
