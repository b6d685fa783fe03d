// Package voice synthesizes narration through the ElevenLabs text-to-speech
// API.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"influencer/internal/channels"
	"influencer/internal/logging"
	"influencer/internal/retry"
	"influencer/internal/services"
)

// Config captures the ElevenLabs settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client is an ElevenLabs TTS client.
type Client struct {
	cfg        Config
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

// WithLogger sets the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "voice", "new client", "api key required", nil)
	}
	timeout := 2 * time.Minute
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
	c.logger = logging.NewComponentLogger(c.logger, "voice")
	return c, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize returns MP3 audio for text spoken by v.
func (c *Client) Synthesize(ctx context.Context, text string, v channels.Voice) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "voice", "synthesize", "empty text", nil)
	}
	if strings.TrimSpace(v.ID) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "voice", "synthesize", "channel has no voice id", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "text-to-speech", v.ID)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "voice", "synthesize", "build url", err)
	}
	body, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: c.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       v.Stability,
			SimilarityBoost: v.Similarity,
			Style:           v.Style,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("voice: encode request: %w", err)
	}

	var audio []byte
	policy := c.policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "tts request failed; retrying", "tts_retry",
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ElevenLabs rate limit or outage"),
		)
	}
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return services.Wrap(services.ErrFatal, "voice", "synthesize", "new request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set("xi-api-key", c.cfg.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				return services.Wrap(services.ErrTransient, "voice", "synthesize", "network", err)
			}
			return err
		}
		defer resp.Body.Close()
		payload, readErr := io.ReadAll(resp.Body)
		if err := statusError(resp.StatusCode, payload); err != nil {
			return err
		}
		if readErr != nil {
			return services.Wrap(services.ErrTransient, "voice", "synthesize", "read body", readErr)
		}
		if len(payload) == 0 {
			return services.Wrap(services.ErrTransient, "voice", "synthesize", "empty audio", nil)
		}
		audio = payload
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func statusError(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	detail := fmt.Sprintf("http %d: %s", code, strings.TrimSpace(string(body)))
	switch {
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "voice", "synthesize", detail, nil)
	default:
		return services.Wrap(services.ErrFatal, "voice", "synthesize", detail, nil)
	}
}
