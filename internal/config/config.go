// Package config loads the process configuration from an env file, the
// environment, an optional config file and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Supported providers and transports.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	TransportSMTP  = "smtp"
	TransportIMAP  = "imap"
	TransportGmail = "gmail"
	TransportSES   = "ses"
)

const (
	defaultEnvFile       = ".env"
	defaultOpenAIBaseURL = "https://models.github.ai/inference"
	defaultOpenAIModel   = "openai/gpt-4.1"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"log-format":   "log_format",
	"log-file":     "log_file",
	"metrics-addr": "metrics_addr",
}

// LLM configures the inference service client.
type LLM struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Mail configures the mail transports.
type Mail struct {
	Outbound     string
	Inbound      string
	User         string
	Password     string
	SMTPHost     string
	SMTPPort     int
	SMTPStartTLS bool
	IMAPHost     string
	IMAPPort     int
	Timeout      time.Duration
	SESRegion    string
}

// Gmail configures the Gmail API transport and its OAuth flow.
type Gmail struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	CallbackAddr string
}

// Log configures logging.
type Log struct {
	Level  string
	Format string
	File   string
}

// Config is the process configuration. It is read once at startup and
// passed to constructors.
type Config struct {
	LLM         LLM
	Mail        Mail
	Gmail       Gmail
	Log         Log
	MetricsAddr string
}

// Options tells Load where to read from. Every field is optional.
type Options struct {
	EnvFile    string
	ConfigFile string
	Flags      *pflag.FlagSet
}

// Error lists every missing or invalid configuration key.
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "configuration error: " + strings.Join(parts, "; ")
}

// Load resolves and validates the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("v.ReadInConfig failed: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("v.BindPFlag(%s) failed: %w", name, err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("godotenv.Load failed: %w", err)
		}
		return nil
	}

	if _, err := os.Stat(defaultEnvFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(defaultEnvFile); err != nil {
		return fmt.Errorf("godotenv.Load failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm_provider", ProviderOpenAI)
	v.SetDefault("llm_timeout", "60s")

	v.SetDefault("outbound_transport", TransportSMTP)
	v.SetDefault("inbox_transport", TransportIMAP)
	v.SetDefault("smtp_server", "smtp.gmail.com")
	v.SetDefault("smtp_port", 465)
	v.SetDefault("smtp_starttls", false)
	v.SetDefault("imap_server", "imap.gmail.com")
	v.SetDefault("imap_port", 993)
	v.SetDefault("mail_timeout", "30s")

	v.SetDefault("gmail_token_file", "./data/mail-agent-token.json")
	v.SetDefault("oauth_callback_addr", "localhost:0")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

func fromViper(v *viper.Viper) *Config {
	provider := strings.ToLower(v.GetString("llm_provider"))

	apiKey := v.GetString("llm_api_key")
	if apiKey == "" {
		apiKey = v.GetString("github_token")
	}

	baseURL := v.GetString("llm_base_url")
	model := v.GetString("llm_model")
	if provider == ProviderOpenAI {
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		if model == "" {
			model = defaultOpenAIModel
		}
	}

	return &Config{
		LLM: LLM{
			Provider: provider,
			BaseURL:  baseURL,
			Model:    model,
			APIKey:   apiKey,
			Timeout:  v.GetDuration("llm_timeout"),
		},
		Mail: Mail{
			Outbound:     strings.ToLower(v.GetString("outbound_transport")),
			Inbound:      strings.ToLower(v.GetString("inbox_transport")),
			User:         v.GetString("email_user"),
			Password:     v.GetString("email_pass"),
			SMTPHost:     v.GetString("smtp_server"),
			SMTPPort:     v.GetInt("smtp_port"),
			SMTPStartTLS: v.GetBool("smtp_starttls"),
			IMAPHost:     v.GetString("imap_server"),
			IMAPPort:     v.GetInt("imap_port"),
			Timeout:      v.GetDuration("mail_timeout"),
			SESRegion:    v.GetString("ses_region"),
		},
		Gmail: Gmail{
			ClientID:     v.GetString("oauth_google_client_id"),
			ClientSecret: v.GetString("oauth_google_client_secret"),
			TokenFile:    v.GetString("gmail_token_file"),
			CallbackAddr: v.GetString("oauth_callback_addr"),
		},
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: strings.ToLower(v.GetString("log_format")),
			File:   v.GetString("log_file"),
		},
		MetricsAddr: v.GetString("metrics_addr"),
	}
}

// UsesGmail reports whether either transport goes through the Gmail API.
func (c *Config) UsesGmail() bool {
	return c.Mail.Outbound == TransportGmail || c.Mail.Inbound == TransportGmail
}

// Validate checks that every key needed by the selected provider and
// transports is present. It returns *Error.
func (c *Config) Validate() error {
	var e Error
	missing := func(key, value string) {
		if value != "" {
			return
		}
		for _, k := range e.Missing {
			if k == key {
				return
			}
		}
		e.Missing = append(e.Missing, key)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		missing("LLM_API_KEY", c.LLM.APIKey)
		missing("LLM_BASE_URL", c.LLM.BaseURL)
		missing("LLM_MODEL", c.LLM.Model)
	case ProviderOllama:
		// An empty base URL selects the local Ollama default.
		missing("LLM_MODEL", c.LLM.Model)
	default:
		e.Invalid = append(e.Invalid, "LLM_PROVIDER")
	}
	if c.LLM.Timeout <= 0 {
		e.Invalid = append(e.Invalid, "LLM_TIMEOUT")
	}

	switch c.Mail.Outbound {
	case TransportSMTP:
		missing("EMAIL_USER", c.Mail.User)
		missing("EMAIL_PASS", c.Mail.Password)
		missing("SMTP_SERVER", c.Mail.SMTPHost)
	case TransportSES:
		missing("EMAIL_USER", c.Mail.User)
		missing("SES_REGION", c.Mail.SESRegion)
	case TransportGmail:
	default:
		e.Invalid = append(e.Invalid, "OUTBOUND_TRANSPORT")
	}

	switch c.Mail.Inbound {
	case TransportIMAP:
		missing("EMAIL_USER", c.Mail.User)
		missing("EMAIL_PASS", c.Mail.Password)
		missing("IMAP_SERVER", c.Mail.IMAPHost)
	case TransportGmail:
	default:
		e.Invalid = append(e.Invalid, "INBOX_TRANSPORT")
	}

	if c.UsesGmail() {
		missing("OAUTH_GOOGLE_CLIENT_ID", c.Gmail.ClientID)
		missing("OAUTH_GOOGLE_CLIENT_SECRET", c.Gmail.ClientSecret)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		e.Invalid = append(e.Invalid, "LOG_LEVEL")
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		e.Invalid = append(e.Invalid, "LOG_FORMAT")
	}

	if len(e.Missing) > 0 || len(e.Invalid) > 0 {
		return &e
	}
	return nil
}
