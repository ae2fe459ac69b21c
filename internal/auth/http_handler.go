package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type tokenStore interface {
	AuthorizeCode(ctx context.Context, code, state string) error
	OAuthToken() (*oauth2.Token, error)
	RedirectURL() (string, error)
}

// HTTPHandler serves the OAuth2 callback. "?redirect=1" starts the consent
// flow, "?code=...&state=..." completes it, and a bare request reports
// whether a token is present.
type HTTPHandler struct {
	tok tokenStore
	log *zap.Logger
}

// NewHTTPHandler creates an HTTP handler for the OAuth2 flow.
func NewHTTPHandler(tok tokenStore, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{tok: tok, log: log}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("redirect") != "" {
		url, err := h.tok.RedirectURL()
		if err != nil {
			h.log.Error("tok.RedirectURL failed", zap.Error(err))
			http.Error(w, "Unable to start authorization", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	if code := query.Get("code"); code != "" {
		if err := h.tok.AuthorizeCode(r.Context(), code, query.Get("state")); err != nil {
			h.log.Warn("tok.AuthorizeCode failed", zap.Error(err))
			http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, r.URL.EscapedPath(), http.StatusFound)
		return
	}

	t, err := h.tok.OAuthToken()
	if errors.Is(err, ErrTokenNotSet) {
		http.Error(w, "Token not found", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "Token unavailable", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Authorized. Token: %s, expires: %s. You can close this tab.",
		maskLeft(t.AccessToken), t.Expiry.Format(time.RFC3339))
}

func maskLeft(s string) string {
	rs := []rune(s)
	for i := 0; i < len(rs)-4; i++ {
		rs[i] = 'X'
	}
	return string(rs)
}
