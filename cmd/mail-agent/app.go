package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/mail-agent/internal/auth"
	"github.com/hal9000y/mail-agent/internal/config"
	"github.com/hal9000y/mail-agent/internal/format"
	"github.com/hal9000y/mail-agent/internal/gservice"
	"github.com/hal9000y/mail-agent/internal/llm"
	"github.com/hal9000y/mail-agent/internal/mailbox"
	"github.com/hal9000y/mail-agent/internal/metrics"
)

// app holds everything both run modes share.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	model   llm.Model
	sender  mailbox.Sender
	reader  mailbox.Reader

	serveErr <-chan error
	closers  []func()
}

func newApp(ctx context.Context, cmd *cobra.Command, opts *options, quiet bool) (a *app, err error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	a = &app{cfg: cfg, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	log, closeLog, err := setupLogger(cfg.Log, quiet)
	if err != nil {
		return nil, err
	}
	a.log = log
	a.closers = append(a.closers, closeLog)

	if err := a.serveMetrics(); err != nil {
		return nil, err
	}

	if a.model, err = newModel(cfg.LLM); err != nil {
		return nil, err
	}
	a.model = llm.Instrument(a.model, a.metrics)

	var gm *mailbox.Gmail
	if cfg.UsesGmail() {
		if gm, err = a.connectGmail(ctx); err != nil {
			return nil, err
		}
	}

	if a.sender, err = a.newSender(ctx, gm); err != nil {
		return nil, err
	}
	a.sender = mailbox.InstrumentSender(a.sender, cfg.Mail.Outbound, a.metrics)
	a.reader = mailbox.InstrumentReader(a.newReader(gm), cfg.Mail.Inbound, a.metrics)

	log.Info("mail agent ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("outbound", cfg.Mail.Outbound),
		zap.String("inbound", cfg.Mail.Inbound),
	)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) serveMetrics() error {
	if a.cfg.MetricsAddr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("net.Listen failed: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	stop, errCh := serveHTTP(&http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}, ln, "metrics", a.log)
	a.serveErr = errCh
	a.closers = append(a.closers, stop)

	return nil
}

func newModel(cfg config.LLM) (llm.Model, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case config.ProviderOllama:
		return llm.NewOllama(llm.OllamaConfig{
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: client,
		})
	default:
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: client,
		})
	}
}

func (a *app) newSender(ctx context.Context, gm *mailbox.Gmail) (mailbox.Sender, error) {
	m := a.cfg.Mail

	switch m.Outbound {
	case config.TransportGmail:
		return gm, nil
	case config.TransportSES:
		s, err := mailbox.NewSES(ctx, m.SESRegion, m.User, a.log)
		if err != nil {
			return nil, fmt.Errorf("mailbox.NewSES failed: %w", err)
		}
		return s, nil
	default:
		return mailbox.NewSMTP(mailbox.SMTPConfig{
			Host:     m.SMTPHost,
			Port:     m.SMTPPort,
			Username: m.User,
			Password: m.Password,
			StartTLS: m.SMTPStartTLS,
			Timeout:  m.Timeout,
		}, a.log), nil
	}
}

func (a *app) newReader(gm *mailbox.Gmail) mailbox.Reader {
	m := a.cfg.Mail

	if m.Inbound == config.TransportGmail {
		return gm
	}
	return mailbox.NewIMAP(mailbox.IMAPConfig{
		Host:     m.IMAPHost,
		Port:     m.IMAPPort,
		Username: m.User,
		Password: m.Password,
		Timeout:  m.Timeout,
	}, a.log)
}

// connectGmail serves the OAuth callback and blocks until a token is available.
func (a *app) connectGmail(ctx context.Context) (*mailbox.Gmail, error) {
	g := a.cfg.Gmail

	ln, err := net.Listen("tcp", g.CallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen failed: %w", err)
	}
	callbackURL := fmt.Sprintf("http://%s/oauth", ln.Addr().String())

	tok, err := auth.NewToken(&oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  callbackURL,
		Scopes:       gmailScopes(a.cfg.Mail),
	}, g.TokenFile, a.log)
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("auth.NewToken failed: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/oauth", auth.NewHTTPHandler(tok, a.log))

	stop, _ := serveHTTP(&http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}, ln, "oauth", a.log)
	a.closers = append(a.closers, stop, func() {
		if err := tok.Persist(); err != nil {
			a.log.Warn("tok.Persist failed", zap.Error(err))
		}
	})

	if _, err := tok.OAuthToken(); err != nil {
		openBrowser(callbackURL, a.log)
		a.log.Info("waiting for gmail authorization", zap.String("url", callbackURL+"?redirect=1"))
		if err := tok.Wait(ctx); err != nil {
			return nil, fmt.Errorf("tok.Wait failed: %w", err)
		}
	}

	return mailbox.NewGmail(gservice.NewGmail(tok), format.Converter{}, a.log), nil
}

// gmailScopes lists the OAuth scopes the selected Gmail transports need. The
// sender reads the account address from the profile, which the send scope
// alone does not grant.
func gmailScopes(m config.Mail) []string {
	var scopes []string
	if m.Inbound == config.TransportGmail {
		scopes = append(scopes, gmail.GmailReadonlyScope)
	}
	if m.Outbound == config.TransportGmail {
		scopes = append(scopes, gmail.GmailSendScope)
		if m.Inbound != config.TransportGmail {
			scopes = append(scopes, gmail.GmailMetadataScope)
		}
	}
	return scopes
}

// setupLogger builds the process logger. quiet discards logs unless a log
// file is set, since stdout carries the stdio transport.
func setupLogger(cfg config.Log, quiet bool) (*zap.Logger, func(), error) {
	if quiet && cfg.File == "" {
		return zap.NewNop(), func() {}, nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("zapcore.ParseLevel failed: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	out := zapcore.Lock(os.Stderr)
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = zapcore.Lock(f)
		closeFn = func() {
			_ = f.Close()
		}
	}

	log := zap.New(zapcore.NewCore(enc, out, level))
	return log, func() {
		_ = log.Sync()
		closeFn()
	}, nil
}

func openBrowser(url string, log *zap.Logger) {
	url = fmt.Sprintf("%s?redirect=1", url)
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		log.Warn("could not open browser automatically, please open the link manually", zap.String("url", url), zap.Error(err))
	}
}
