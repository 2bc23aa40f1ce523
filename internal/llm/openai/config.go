package openai

import (
	"log/slog"
	"net/http"
	"time"

	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// Defaults applied by NewClient to zero-valued Config fields
const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultModel        = "gpt-4o"
	DefaultMaxTokens    = 1000
	DefaultTimeout      = 60 * time.Second
	DefaultRetryBackoff = time.Second
)

// Config for the OpenAI client. The API key must be supplied explicitly;
// the client never reads the environment.
type Config struct {
	APIKey       string
	BaseURL      string        // default https://api.openai.com/v1
	Model        string        // default gpt-4o
	Temperature  float32       // 0..2
	MaxTokens    int           // default 1000
	Timeout      time.Duration // per attempt
	MaxRetries   int           // extra attempts after a retriable failure
	RetryBackoff time.Duration // multiplied by the attempt number
}

// Client generates form values with the chat completions API
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient validates cfg and fills in defaults. A missing API key is a
// MissingCredential error.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeMissingCredential,
			"OpenAI API key is not configured", "set openai.api_key or OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.cfg.Model
}
