package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"github.com/matzehuels/flyersmith/pkg/buildinfo"
	"github.com/matzehuels/flyersmith/pkg/cache"
	ferrors "github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/observability"
)

// Defaults for Config.
const (
	DefaultChatModel    = openai.GPT4oMini
	DefaultImageModel   = openai.CreateImageModelDallE3
	DefaultImageSize    = openai.CreateImageSize1024x1024
	DefaultImageQuality = openai.CreateImageQualityStandard
	DefaultMaxTokens    = 4096
	DefaultTimeout      = 2 * time.Minute
)

// Config configures an OpenAI client.
type Config struct {
	APIKey       string
	BaseURL      string // empty for api.openai.com
	ChatModel    string
	ImageModel   string
	ImageSize    string
	ImageQuality string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
}

// SetDefaults fills zero fields with the package defaults.
func (c *Config) SetDefaults() {
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.ImageSize == "" {
		c.ImageSize = DefaultImageSize
	}
	if c.ImageQuality == "" {
		c.ImageQuality = DefaultImageQuality
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks that the client can be built.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ferrors.New(ferrors.ErrCodeInvalidConfig, "API key is required (set OPENAI_API_KEY)")
	}
	if c.BaseURL != "" {
		if err := ferrors.ValidateURL(c.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

// OpenAI implements Completer and Imager against an OpenAI-compatible API.
type OpenAI struct {
	client  *openai.Client
	cfg     Config
	backoff cache.Backoff
	logger  *log.Logger
}

// Option configures an OpenAI client.
type Option func(*OpenAI)

// WithLogger sets the logger for retry warnings.
func WithLogger(l *log.Logger) Option { return func(o *OpenAI) { o.logger = l } }

// WithBackoff replaces the retry policy.
func WithBackoff(b cache.Backoff) Option { return func(o *OpenAI) { o.backoff = b } }

// WithHTTPClient replaces the HTTP client, e.g. to point tests at an
// httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *OpenAI) {
		oc := o.clientConfig()
		oc.HTTPClient = hc
		o.client = openai.NewClientWithConfig(oc)
	}
}

// NewOpenAI creates a client. Zero Config fields take their defaults.
func NewOpenAI(cfg Config, opts ...Option) (*OpenAI, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &OpenAI{cfg: cfg, backoff: cache.DefaultBackoff}
	oc := o.clientConfig()
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout, Transport: userAgent{http.DefaultTransport}}
	o.client = openai.NewClientWithConfig(oc)
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o, nil
}

// userAgent stamps outgoing requests with the flyersmith version.
type userAgent struct{ next http.RoundTripper }

func (u userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", buildinfo.UserAgent())
	return u.next.RoundTrip(r)
}

func (o *OpenAI) clientConfig() openai.ClientConfig {
	oc := openai.DefaultConfig(o.cfg.APIKey)
	if o.cfg.BaseURL != "" {
		oc.BaseURL = o.cfg.BaseURL
	}
	return oc
}

// Config returns the effective configuration.
func (o *OpenAI) Config() Config { return o.cfg }

// Complete sends prompt as a single user message and returns the reply text.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.cfg.ChatModel,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	var reply string
	err := o.call(ctx, "chat", o.cfg.ChatModel, func() error {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ferrors.New(ferrors.ErrCodeUpstream, "chat completion returned no choices")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	return reply, err
}

// Generate requests one image and returns the decoded bytes.
func (o *OpenAI) Generate(ctx context.Context, prompt string) ([]byte, error) {
	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.cfg.ImageModel,
		N:              1,
		Size:           o.cfg.ImageSize,
		Quality:        o.cfg.ImageQuality,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}

	var img []byte
	err := o.call(ctx, "image", o.cfg.ImageModel, func() error {
		resp, err := o.client.CreateImage(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
			return ferrors.New(ferrors.ErrCodeImageGeneration, "image response carried no data")
		}
		img, err = base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
		if err != nil {
			return ferrors.Wrap(ferrors.ErrCodeImageGeneration, err, "decode image data")
		}
		return nil
	})
	return img, err
}

// call runs fn under the retry policy and reports it to the model hooks.
func (o *OpenAI) call(ctx context.Context, kind, model string, fn func() error) error {
	hooks := observability.Model()
	hooks.OnRequest(ctx, kind, model)
	start := time.Now()

	attempt := 0
	err := o.backoff.Retry(ctx, func() error {
		attempt++
		err := classify(fn())
		if err != nil && cache.IsRetryable(err) {
			o.logger.Warn("model call failed, retrying", "kind", kind, "attempt", attempt, "error", err)
		}
		return err
	})
	err = unwrapRetryable(err)

	hooks.OnResponse(ctx, kind, model, time.Since(start), err)
	return err
}

// classify maps client errors onto error codes and marks transient ones
// retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var fe *ferrors.Error
	if errors.As(err, &fe) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return byStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return byStatus(reqErr.HTTPStatusCode, err)
	}
	return cache.Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, errors.Join(cache.ErrNetwork, err), "model service unreachable"))
}

func byStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return cache.Retryable(ferrors.Wrap(ferrors.ErrCodeRateLimited, err, "model service rate limit"))
	case status >= 500:
		return cache.Retryable(ferrors.Wrap(ferrors.ErrCodeUpstream, err, "model service error %d", status))
	case status == 0:
		return cache.Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, errors.Join(cache.ErrNetwork, err), "model service unreachable"))
	default:
		return ferrors.Wrap(ferrors.ErrCodeUpstream, err, "model service rejected request (%d)", status)
	}
}

func unwrapRetryable(err error) error {
	var re *cache.RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}

var (
	_ Completer = (*OpenAI)(nil)
	_ Imager    = (*OpenAI)(nil)
)
