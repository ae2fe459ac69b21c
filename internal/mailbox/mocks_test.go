package mailbox_test

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/smtp"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/emersion/go-imap"
	"google.golang.org/api/gmail/v1"
)

type smtpClientMock struct {
	StartTLSFunc func(cfg *tls.Config) error
	AuthFunc     func(a smtp.Auth) error
	MailFunc     func(from string) error
	RcptFunc     func(to string) error
	DataFunc     func() (io.WriteCloser, error)

	calls []string
	data  bytes.Buffer
}

func (m *smtpClientMock) StartTLS(cfg *tls.Config) error {
	m.calls = append(m.calls, "StartTLS")
	if m.StartTLSFunc != nil {
		return m.StartTLSFunc(cfg)
	}
	return nil
}

func (m *smtpClientMock) Auth(a smtp.Auth) error {
	m.calls = append(m.calls, "Auth")
	if m.AuthFunc != nil {
		return m.AuthFunc(a)
	}
	return nil
}

func (m *smtpClientMock) Mail(from string) error {
	m.calls = append(m.calls, "Mail "+from)
	if m.MailFunc != nil {
		return m.MailFunc(from)
	}
	return nil
}

func (m *smtpClientMock) Rcpt(to string) error {
	m.calls = append(m.calls, "Rcpt "+to)
	if m.RcptFunc != nil {
		return m.RcptFunc(to)
	}
	return nil
}

func (m *smtpClientMock) Data() (io.WriteCloser, error) {
	m.calls = append(m.calls, "Data")
	if m.DataFunc != nil {
		return m.DataFunc()
	}
	return nopWriteCloser{&m.data}, nil
}

func (m *smtpClientMock) Quit() error {
	m.calls = append(m.calls, "Quit")
	return nil
}

func (m *smtpClientMock) Close() error {
	m.calls = append(m.calls, "Close")
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type imapSessionMock struct {
	LoginFunc  func(username, password string) error
	SelectFunc func(name string, readOnly bool) (*imap.MailboxStatus, error)
	SearchFunc func(criteria *imap.SearchCriteria) ([]uint32, error)
	FetchFunc  func(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error

	fetched bool
	logouts int
}

func (m *imapSessionMock) Login(username, password string) error {
	if m.LoginFunc != nil {
		return m.LoginFunc(username, password)
	}
	return nil
}

func (m *imapSessionMock) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	if m.SelectFunc != nil {
		return m.SelectFunc(name, readOnly)
	}
	return &imap.MailboxStatus{Name: name}, nil
}

func (m *imapSessionMock) Search(criteria *imap.SearchCriteria) ([]uint32, error) {
	return m.SearchFunc(criteria)
}

func (m *imapSessionMock) Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	m.fetched = true
	return m.FetchFunc(seqset, items, ch)
}

func (m *imapSessionMock) Logout() error {
	m.logouts++
	return nil
}

type sesAPIMock struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *sesAPIMock) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type gmailAPIMock struct {
	ListMessagesFunc func(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageFunc   func(ctx context.Context, msgID string) (*gmail.Message, error)
	SendMessageFunc  func(ctx context.Context, raw []byte) (*gmail.Message, error)
	EmailAddressFunc func(ctx context.Context) (string, error)
}

func (m *gmailAPIMock) ListMessages(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListMessagesFunc(ctx, q, pageToken, maxResults)
}

func (m *gmailAPIMock) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageFunc(ctx, msgID)
}

func (m *gmailAPIMock) SendMessage(ctx context.Context, raw []byte) (*gmail.Message, error) {
	return m.SendMessageFunc(ctx, raw)
}

func (m *gmailAPIMock) EmailAddress(ctx context.Context) (string, error) {
	return m.EmailAddressFunc(ctx)
}
