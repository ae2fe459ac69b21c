package mailbox

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"
)

const inboxName = "INBOX"

// IMAPConfig configures the IMAP reader.
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

type imapSession interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

type imapDialer func(ctx context.Context, cfg IMAPConfig) (imapSession, error)

// IMAP reads the inbox over IMAP with implicit TLS.
type IMAP struct {
	cfg  IMAPConfig
	dial imapDialer
	log  *zap.Logger
}

// NewIMAP creates an IMAP reader.
func NewIMAP(cfg IMAPConfig, log *zap.Logger) *IMAP {
	return &IMAP{cfg: cfg, dial: dialIMAP, log: log}
}

// LatestUnreadBody fetches the newest UNSEEN message of INBOX. Fetching the
// full body marks the message as read.
func (r *IMAP) LatestUnreadBody(ctx context.Context) (string, error) {
	raw, err := r.fetchLatestUnread(ctx)
	if err != nil {
		return "", err
	}

	return ParseBody(raw)
}

func (r *IMAP) fetchLatestUnread(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "fetch", Transport: "imap", Err: err}
	}

	c, err := r.dial(ctx, r.cfg)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Transport: "imap", Err: err}
	}
	defer func() {
		if err := c.Logout(); err != nil {
			r.log.Warn("imap logout failed", zap.Error(err))
		}
	}()

	if err := c.Login(r.cfg.Username, r.cfg.Password); err != nil {
		return nil, &TransportError{Op: "fetch", Transport: "imap", Err: fmt.Errorf("c.Login failed: %w", err)}
	}

	if _, err := c.Select(inboxName, false); err != nil {
		return nil, &TransportError{Op: "fetch", Transport: "imap", Err: fmt.Errorf("c.Select failed: %w", err)}
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	ids, err := c.Search(criteria)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Transport: "imap", Err: fmt.Errorf("c.Search failed: %w", err)}
	}
	if len(ids) == 0 {
		return nil, ErrNoUnread
	}

	latest := ids[0]
	for _, id := range ids[1:] {
		if id > latest {
			latest = id
		}
	}

	raw, err := fetchBody(c, latest)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Transport: "imap", Err: err}
	}

	r.log.Debug("fetched latest unread message", zap.Uint32("seq", latest), zap.Int("unread", len(ids)))

	return raw, nil
}

func fetchBody(c imapSession, seq uint32) ([]byte, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(seq)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var (
		raw     []byte
		readErr error
	)
	// Drain the channel fully so Fetch can return.
	for msg := range messages {
		if raw != nil || readErr != nil || msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, readErr = io.ReadAll(body)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("c.Fetch failed: %w", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("io.ReadAll failed: %w", readErr)
	}
	if raw == nil {
		return nil, fmt.Errorf("message %d returned no body", seq)
	}

	return raw, nil
}

func dialIMAP(_ context.Context, cfg IMAPConfig) (imapSession, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: cfg.Timeout}, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("client.DialWithDialerTLS(%s) failed: %w", addr, err)
	}
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}

	return c, nil
}
