package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-agent/internal/metrics"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.Turns.WithLabelValues("send_email", "ok").Inc()
	m.MailOperations.WithLabelValues("send", "smtp", "error").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("send_email", "ok")))

	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `mail_agent_turns_total{directive="send_email",outcome="ok"} 1`)
	assert.Contains(t, string(body), `mail_agent_mail_operations_total{op="send",result="error",transport="smtp"} 2`)
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", metrics.Result(nil))
	assert.Equal(t, "error", metrics.Result(errors.New("boom")))
}
