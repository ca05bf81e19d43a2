package openai

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/property-annotator/internal/llm"
)

// Config for the OpenAI-compatible chat client.
type Config struct {
	BaseURL     string        // default https://chat-ai.academiccloud.de/v1
	Model       string        // e.g., "meta-llama-3.1-8b-instruct"
	Temperature float32       // 0..2
	Timeout     time.Duration // per-call budget, the oracle can be slow under load
}

// ChatCompleter is the slice of the go-openai client this package uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// CompleterFactory binds a ChatCompleter to one credential.
type CompleterFactory func(apiKey string) ChatCompleter

// Option customizes a Client.
type Option func(*Client)

// WithCompleterFactory replaces the go-openai binding, mainly for tests.
func WithCompleterFactory(f CompleterFactory) Option {
	return func(c *Client) {
		if f != nil {
			c.newCompleter = f
		}
	}
}

// Client extracts property triples through a chat-completion oracle, rotating
// credentials from a shared pool on rate limits.
type Client struct {
	cfg          Config
	pool         *llm.CredentialPool
	newCompleter CompleterFactory
	log          *slog.Logger

	mu        sync.Mutex
	completer ChatCompleter
	boundIdx  int
}

var _ llm.PropertyExtractor = (*Client)(nil)

func NewClient(cfg Config, pool *llm.CredentialPool, logger *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://chat-ai.academiccloud.de/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "meta-llama-3.1-8b-instruct"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:      cfg,
		pool:     pool,
		log:      logger,
		boundIdx: -1,
	}
	c.newCompleter = c.defaultCompleter
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) defaultCompleter(apiKey string) ChatCompleter {
	oc := goopenai.DefaultConfig(apiKey)
	oc.BaseURL = c.cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: c.cfg.Timeout}
	return goopenai.NewClientWithConfig(oc)
}

// Pool exposes the credential pool for health reporting.
func (c *Client) Pool() *llm.CredentialPool {
	return c.pool
}
