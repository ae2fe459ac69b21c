package mailbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type (
	SMTPClient  = smtpClient
	IMAPSession = imapSession
	SESAPI      = sesAPI
	GmailAPI    = gmailAPI
)

func NewSMTPWithDialer(cfg SMTPConfig, dial func(context.Context, SMTPConfig) (SMTPClient, error), now func() time.Time, log *zap.Logger) *SMTP {
	return &SMTP{cfg: cfg, dial: dial, now: now, log: log}
}

func NewIMAPWithDialer(cfg IMAPConfig, dial func(context.Context, IMAPConfig) (IMAPSession, error), log *zap.Logger) *IMAP {
	return &IMAP{cfg: cfg, dial: dial, log: log}
}

func NewSESWithAPI(api SESAPI, from string, log *zap.Logger) *SES {
	return &SES{api: api, from: from, log: log}
}

func NewGmailAt(api GmailAPI, conv htmlConverter, now func() time.Time, log *zap.Logger) *Gmail {
	return &Gmail{api: api, conv: conv, now: now, log: log}
}
