package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"influencer/internal/logging"
	"influencer/internal/retry"
	"influencer/internal/services"
	"influencer/internal/transcript"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	TimeoutSeconds     int
}

// Client issues completions and transcriptions.
type Client struct {
	cfg        Config
	api        openai.Client
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(policy retry.Policy) Option {
	return func(c *Client) { c.policy = policy }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient constructs a client. An empty API key is a configuration error.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "new client", "api key required", nil)
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		policy:     retry.Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "llm")

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	c.api = openai.NewClient(reqOpts...)
	return c, nil
}

// Complete sends one system + user exchange and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "user prompt required", nil)
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	var content string
	err := retry.Do(ctx, c.retryPolicy(ctx, "complete"), func(ctx context.Context) error {
		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    c.cfg.Model,
			Messages: messages,
		})
		if err != nil {
			return classify("complete", err)
		}
		if len(resp.Choices) == 0 {
			return services.Wrap(services.ErrTransient, "llm", "complete", "empty choices", nil)
		}
		choice := resp.Choices[0]
		content = strings.TrimSpace(choice.Message.Content)
		if content == "" {
			if choice.Message.Refusal != "" {
				return services.Wrap(services.ErrFatal, "llm", "complete", "refused: "+choice.Message.Refusal, nil)
			}
			return services.Wrap(services.ErrTransient, "llm", "complete",
				fmt.Sprintf("empty content (finish_reason=%q)", choice.FinishReason), nil)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// CompleteJSON runs Complete and decodes the reply into target.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, target any) error {
	content, err := c.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}
	if err := DecodeJSON(content, target); err != nil {
		return services.Wrap(services.ErrValidation, "llm", "decode reply", "", err)
	}
	return nil
}

type verboseTranscription struct {
	Text  string `json:"text"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe returns word-level timings for the audio file at path.
func (c *Client) Transcribe(ctx context.Context, path string) ([]transcript.Word, error) {
	var words []transcript.Word
	err := retry.Do(ctx, c.retryPolicy(ctx, "transcribe"), func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return services.Wrap(services.ErrStorage, "llm", "transcribe", path, err)
		}
		defer f.Close()
		resp, err := c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
			File:                   f,
			Model:                  openai.AudioModel(c.cfg.TranscriptionModel),
			ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
			TimestampGranularities: []string{"word"},
		})
		if err != nil {
			return classify("transcribe", err)
		}
		var parsed verboseTranscription
		if err := json.Unmarshal([]byte(resp.RawJSON()), &parsed); err != nil {
			return services.Wrap(services.ErrValidation, "llm", "transcribe", "decode words", err)
		}
		words = words[:0]
		for _, w := range parsed.Words {
			words = append(words, transcript.Word{Text: w.Word, Start: w.Start, End: w.End, Confidence: 1})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

// HealthCheck issues a tiny completion to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Complete(ctx, "Answer with a single word.", "Reply with OK.")
	return err
}

func (c *Client) retryPolicy(ctx context.Context, op string) retry.Policy {
	p := c.policy
	logger := logging.WithContext(ctx, c.logger)
	p.OnRetry = func(attempt int, wait time.Duration, err error) {
		logging.WarnWithContext(logger, "llm request failed; retrying", "llm_retry",
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rate limit or provider outage"),
		)
	}
	return p
}

// classify maps SDK and transport errors onto the error taxonomy.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, "llm", op, fmt.Sprintf("http %d", code), err)
		default:
			return services.Wrap(services.ErrFatal, "llm", op, fmt.Sprintf("http %d", code), err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return services.Wrap(services.ErrTransient, "llm", op, "network", err)
	}
	return services.Wrap(services.ErrFatal, "llm", op, "", err)
}
