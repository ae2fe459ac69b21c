// Package auth runs the Google OAuth2 consent flow and keeps the resulting token.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const stateTTL = 5 * time.Minute

var (
	// ErrTokenNotSet indicates no OAuth token is available.
	ErrTokenNotSet = errors.New("no token defined")
	// ErrInvalidState is returned for an unknown or expired callback state.
	ErrInvalidState = errors.New("invalid or expired state parameter")
)

// Token holds the OAuth2 token of the mailbox owner and persists it between runs.
type Token struct {
	mu          sync.RWMutex
	cfg         *oauth2.Config
	token       *oauth2.Token
	persistPath string
	states      map[string]time.Time
	ready       chan struct{}
	now         func() time.Time
	log         *zap.Logger
}

// NewToken creates a Token, loading a previously persisted token when
// persistPath points to an existing file.
func NewToken(cfg *oauth2.Config, persistPath string, log *zap.Logger) (*Token, error) {
	t := &Token{
		cfg:         cfg,
		persistPath: persistPath,
		states:      make(map[string]time.Time),
		ready:       make(chan struct{}),
		now:         time.Now,
		log:         log,
	}
	if persistPath == "" {
		return t, nil
	}

	data, err := os.ReadFile(persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("token file not found, it will be created after authorization", zap.String("path", persistPath))
			return t, nil
		}
		return nil, fmt.Errorf("os.ReadFile failed: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
	}
	t.setToken(token)

	return t, nil
}

// RedirectURL returns the consent page URL carrying a fresh random state.
func (t *Token) RedirectURL() (string, error) {
	state, err := t.newState()
	if err != nil {
		return "", fmt.Errorf("newState failed: %w", err)
	}

	return t.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (t *Token) newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for s, exp := range t.states {
		if exp.Before(now) {
			delete(t.states, s)
		}
	}
	t.states[state] = now.Add(stateTTL)

	return state, nil
}

func (t *Token) consumeState(state string) bool {
	if state == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.states[state]
	if !ok {
		return false
	}
	delete(t.states, state)

	return !t.now().After(expiry)
}

// AuthorizeCode exchanges an authorization code for a token after checking state.
func (t *Token) AuthorizeCode(ctx context.Context, code, state string) error {
	if !t.consumeState(state) {
		return ErrInvalidState
	}

	tok, err := t.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("cfg.Exchange failed: %w", err)
	}
	t.setToken(tok)

	if err := t.Persist(); err != nil {
		t.log.Warn("token persist failed", zap.Error(err))
	}

	return nil
}

func (t *Token) setToken(tok *oauth2.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.token = tok
	select {
	case <-t.ready:
	default:
		close(t.ready)
	}
}

// OAuthToken returns the current OAuth2 token.
func (t *Token) OAuthToken() (*oauth2.Token, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.token == nil {
		return nil, ErrTokenNotSet
	}

	return t.token, nil
}

// Wait blocks until a token is available or ctx is done.
func (t *Token) Wait(ctx context.Context) error {
	select {
	case <-t.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

// Client returns an HTTP client authorized with the current token. Refreshed
// tokens are kept in memory and written on the next Persist.
func (t *Token) Client(ctx context.Context) (*http.Client, error) {
	tok, err := t.OAuthToken()
	if err != nil {
		return nil, err
	}

	return oauth2.NewClient(ctx, &refreshingSource{
		parent: t,
		src:    oauth2.ReuseTokenSource(tok, t.cfg.TokenSource(ctx, tok)),
	}), nil
}

type refreshingSource struct {
	parent *Token
	src    oauth2.TokenSource
}

func (s *refreshingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("src.Token failed: %w", err)
	}

	s.parent.mu.Lock()
	s.parent.token = tok
	s.parent.mu.Unlock()

	return tok, nil
}

// Persist saves the token to disk. It is a no-op without a path or a token.
func (t *Token) Persist() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.persistPath == "" || t.token == nil {
		return nil
	}

	data, err := json.Marshal(t.token)
	if err != nil {
		return fmt.Errorf("json.Marshal failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.persistPath), 0o700); err != nil {
		return fmt.Errorf("os.MkdirAll failed: %w", err)
	}
	if err := os.WriteFile(t.persistPath, data, 0o600); err != nil {
		return fmt.Errorf("os.WriteFile failed: %w", err)
	}

	return nil
}
