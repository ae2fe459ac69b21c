package gservice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type clientSourceMock struct {
	ClientFunc func(ctx context.Context) (*http.Client, error)
}

func (m *clientSourceMock) Client(ctx context.Context) (*http.Client, error) {
	return m.ClientFunc(ctx)
}

func newTestGmail(t *testing.T, h http.HandlerFunc) *GMail {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g := NewGmail(&clientSourceMock{
		ClientFunc: func(context.Context) (*http.Client, error) { return srv.Client(), nil },
	})
	g.opts = []option.ClientOption{option.WithEndpoint(srv.URL + "/")}

	return g
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListMessages(t *testing.T) {
	g := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages", r.URL.Path)
		assert.Equal(t, "is:unread in:inbox", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		writeJSON(t, w, gmail.ListMessagesResponse{Messages: []*gmail.Message{{Id: "m1"}}})
	})

	resp, err := g.ListMessages(context.Background(), "is:unread in:inbox", "", 1)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "m1", resp.Messages[0].Id)
}

func TestGetMessage(t *testing.T) {
	g := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/m1", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		writeJSON(t, w, gmail.Message{Id: "m1", Snippet: "hi"})
	})

	msg, err := g.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Snippet)
}

func TestSendMessage(t *testing.T) {
	raw := []byte("To: bob@example.com\r\nSubject: Hi\r\n\r\nBody")

	g := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)

		var msg gmail.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		decoded, err := base64.URLEncoding.DecodeString(msg.Raw)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)

		writeJSON(t, w, gmail.Message{Id: "sent-1"})
	})

	sent, err := g.SendMessage(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "sent-1", sent.Id)
}

func TestEmailAddress(t *testing.T) {
	g := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/profile", r.URL.Path)
		writeJSON(t, w, gmail.Profile{EmailAddress: "me@example.com"})
	})

	addr, err := g.EmailAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", addr)
}

func TestAPIErrors(t *testing.T) {
	g := newTestGmail(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	_, err := g.ListMessages(context.Background(), "", "", 1)
	require.ErrorContains(t, err, "messages.List failed")

	_, err = g.GetMessage(context.Background(), "m1")
	require.ErrorContains(t, err, "messages.Get failed")

	_, err = g.SendMessage(context.Background(), []byte("x"))
	require.ErrorContains(t, err, "messages.Send failed")

	_, err = g.EmailAddress(context.Background())
	require.ErrorContains(t, err, "users.GetProfile failed")
}

func TestClientSourceError(t *testing.T) {
	g := NewGmail(&clientSourceMock{
		ClientFunc: func(context.Context) (*http.Client, error) { return nil, errors.New("no token defined") },
	})

	_, err := g.ListMessages(context.Background(), "", "", 1)
	require.ErrorContains(t, err, "src.Client failed: no token defined")
}
