package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"influencer/internal/config"
	"influencer/internal/logging"
	"influencer/internal/retry"
)

const userAgent = "Influencer-Go/0.1.0"

// Service defines the notification surface exposed to the batch loops. Every
// Notify method is fire-and-forget: delivery failures are retried and logged,
// never returned.
type Service interface {
	NotifyNeedUpload(ctx context.Context, channel string, days int)
	NotifyNeedProduce(ctx context.Context, channel string, days, ready int)
	NotifyItemFailed(ctx context.Context, channel, title string, err error)
	NotifyPossibleExpiredToken(ctx context.Context, channel string, err error)
	NotifyQuotaClosed(ctx context.Context, channel string)
	NotifyRunCompleted(ctx context.Context, run string, processed, failed int, duration time.Duration)
	TestNotification(ctx context.Context) error
}

// Options tunes the Telegram sender.
type Options struct {
	Sleep  retry.Sleeper
	Logger *slog.Logger
}

// NewService builds a Telegram-backed service when a bot token and chat id
// are configured, and a noop service otherwise.
func NewService(cfg *config.Config, opts Options) Service {
	token := strings.TrimSpace(cfg.Notifications.TelegramToken)
	chat := strings.TrimSpace(cfg.Notifications.TelegramChatID)
	if token == "" || chat == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.Notifications.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}
	base := strings.TrimRight(cfg.Notifications.TelegramBaseURL, "/")
	return &telegramService{
		endpoint: base + "/bot" + token + "/sendMessage",
		chatID:   chat,
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		delay:    time.Duration(cfg.Notifications.RetryDelaySeconds) * time.Second,
		sleep:    sleep,
		logger:   logging.NewComponentLogger(opts.Logger, "notifications"),
	}
}

type telegramService struct {
	endpoint string
	chatID   string
	client   *http.Client
	attempts int
	delay    time.Duration
	sleep    retry.Sleeper
	logger   *slog.Logger
}

func (n *telegramService) NotifyNeedUpload(ctx context.Context, channel string, days int) {
	n.deliver(ctx, "need_upload", fmt.Sprintf(
		"⚠️⚠️ NEED TO UPLOAD VIDEOS ⚠️⚠️\nOnly %d days in the future with scheduled videos\nFor the Influencer %s",
		days, channel))
}

func (n *telegramService) NotifyNeedProduce(ctx context.Context, channel string, days, ready int) {
	n.deliver(ctx, "need_produce", fmt.Sprintf(
		"⚠️⚠️ NEED TO PRODUCE VIDEOS ⚠️⚠️\nOnly %d videos ready\nOnly %d days in the future with scheduled videos\nFor the Influencer %s",
		ready, days, channel))
}

func (n *telegramService) NotifyItemFailed(ctx context.Context, channel, title string, err error) {
	n.deliver(ctx, "item_failed", fmt.Sprintf("❌ %s: failed on %q\n%s", channel, strings.TrimSpace(title), errorText(err)))
}

func (n *telegramService) NotifyPossibleExpiredToken(ctx context.Context, channel string, err error) {
	n.deliver(ctx, "expired_token", fmt.Sprintf(
		"⚠️⚠️ POSSIBLE EXPIRED TOKEN\nThere was an error for influencer %s\nToken is likely to be expired or revoked\nReal Error Message:\n%s",
		channel, errorText(err)))
}

func (n *telegramService) NotifyQuotaClosed(ctx context.Context, channel string) {
	n.deliver(ctx, "quota_closed", fmt.Sprintf("🛑 %s reached the daily upload limit; no more uploads until tomorrow", channel))
}

func (n *telegramService) NotifyRunCompleted(ctx context.Context, run string, processed, failed int, duration time.Duration) {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	message := fmt.Sprintf("✅ %s complete: %d items processed in %s", run, processed, duration)
	if failed > 0 {
		message = fmt.Sprintf("⚠️ %s complete: %d succeeded, %d failed in %s", run, processed, failed, duration)
	}
	n.deliver(ctx, "run_completed", message)
}

func (n *telegramService) TestNotification(ctx context.Context) error {
	return n.send(ctx, "🧪 Notification system test")
}

// deliver retries send with a fixed delay and logs the final failure.
func (n *telegramService) deliver(ctx context.Context, event, text string) {
	var err error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		if err = n.send(ctx, text); err == nil {
			n.logger.Debug("notification sent", logging.String(logging.FieldEventType, event))
			return
		}
		if attempt == n.attempts || ctx.Err() != nil {
			break
		}
		n.logger.Info("notification failed; retrying",
			logging.String(logging.FieldEventType, event),
			logging.Int("attempt", attempt),
			logging.Duration("delay", n.delay),
			logging.Error(err),
		)
		if n.sleep(ctx, n.delay) != nil {
			break
		}
	}
	logging.WarnWithContext(n.logger, "notification dropped", "notification_dropped",
		logging.String("notification", event),
		logging.String(logging.FieldErrorHint, "check telegram_token and telegram_chat_id"),
		logging.String(logging.FieldImpact, "operator was not alerted"),
		logging.Error(err),
	)
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *telegramService) send(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed telegramResponse
	if err := json.Unmarshal(body, &parsed); err == nil && !parsed.OK {
		return fmt.Errorf("telegram rejected message: %s", parsed.Description)
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return "unknown"
	}
	return strings.TrimSpace(err.Error())
}

type noopService struct{}

func (noopService) NotifyNeedUpload(context.Context, string, int)                       {}
func (noopService) NotifyNeedProduce(context.Context, string, int, int)                 {}
func (noopService) NotifyItemFailed(context.Context, string, string, error)             {}
func (noopService) NotifyPossibleExpiredToken(context.Context, string, error)           {}
func (noopService) NotifyQuotaClosed(context.Context, string)                           {}
func (noopService) NotifyRunCompleted(context.Context, string, int, int, time.Duration) {}
func (noopService) TestNotification(context.Context) error                              { return nil }

// Noop returns a service that drops every notification.
func Noop() Service { return noopService{} }
