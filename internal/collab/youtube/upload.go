package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"influencer/internal/channels"
	"influencer/internal/logging"
	"influencer/internal/retry"
	"influencer/internal/services"
)

// PublishLayout is the RFC 3339 form YouTube expects for publishAt.
const PublishLayout = "2006-01-02T15:04:05.000Z"

// Video describes one upload.
type Video struct {
	Path        string
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Language    string
	PublishAt   time.Time
}

// Config captures the upload settings.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenDir     string
	ChunkSizeMB  int
	// Endpoint overrides the API base URL.
	Endpoint string
}

// ClientFactory returns an authorized HTTP client for a token file.
type ClientFactory func(ctx context.Context, tokenPath string) (*http.Client, error)

// Uploader publishes videos for a channel.
type Uploader struct {
	cfg     Config
	clients ClientFactory
	policy  retry.Policy
	logger  *slog.Logger
}

// Option customizes the uploader.
type Option func(*Uploader)

// WithClientFactory replaces the OAuth client construction.
func WithClientFactory(f ClientFactory) Option {
	return func(u *Uploader) { u.clients = f }
}

// WithRetry overrides the retry policy for transient upload failures.
func WithRetry(policy retry.Policy) Option {
	return func(u *Uploader) { u.policy = policy }
}

// WithLogger sets the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) { u.logger = logger }
}

// NewUploader validates cfg and builds an uploader.
func NewUploader(cfg Config, opts ...Option) (*Uploader, error) {
	u := &Uploader{
		cfg:    cfg,
		policy: retry.Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.clients == nil {
		if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "youtube", "new uploader", "client id and secret required", nil)
		}
		oauthCfg := OAuthConfig(cfg.ClientID, cfg.ClientSecret)
		u.clients = func(ctx context.Context, path string) (*http.Client, error) {
			return TokenClient(ctx, oauthCfg, path)
		}
	}
	u.logger = logging.NewComponentLogger(u.logger, "youtube")
	return u, nil
}

// TokenPath is where a channel's token is cached.
func (u *Uploader) TokenPath(creds channels.Credentials) string {
	return filepath.Join(u.cfg.TokenDir, creds.TokenFile())
}

// Upload inserts v as a private video scheduled for v.PublishAt and returns
// the new video id.
func (u *Uploader) Upload(ctx context.Context, creds channels.Credentials, v Video) (string, error) {
	client, err := u.clients(ctx, u.TokenPath(creds))
	if err != nil {
		return "", err
	}
	svcOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if u.cfg.Endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(u.cfg.Endpoint))
	}
	svc, err := youtube.NewService(ctx, svcOpts...)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "youtube", "new service", "", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                v.Title,
			Description:          v.Description,
			Tags:                 v.Tags,
			CategoryId:           v.CategoryID,
			DefaultLanguage:      v.Language,
			DefaultAudioLanguage: v.Language,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "private",
			SelfDeclaredMadeForKids: false,
		},
	}
	if !v.PublishAt.IsZero() {
		video.Status.PublishAt = v.PublishAt.UTC().Format(PublishLayout)
	}
	chunk := u.cfg.ChunkSizeMB
	if chunk <= 0 {
		chunk = 8
	}

	policy := u.policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		logging.WarnWithContext(logging.WithContext(ctx, u.logger), "upload failed; retrying", "upload_retry",
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "YouTube 5xx or network interruption"),
		)
	}
	var id string
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		f, err := os.Open(v.Path)
		if err != nil {
			return services.Wrap(services.ErrStorage, "youtube", "open video", v.Path, err)
		}
		defer f.Close()
		res, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
			Media(f, googleapi.ChunkSize(chunk<<20)).
			Context(ctx).
			Do()
		if err != nil {
			return Classify(err)
		}
		if res == nil || res.Id == "" {
			return services.Wrap(services.ErrFatal, "youtube", "upload", "response without video id", nil)
		}
		id = res.Id
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

var quotaReasons = map[string]bool{
	"quotaExceeded":       true,
	"uploadLimitExceeded": true,
	"rateLimitExceeded":   true,
}

// retriableStatus mirrors the statuses the resumable upload protocol retries.
var retriableStatus = map[int]bool{500: true, 502: true, 503: true, 504: true}

// Classify maps an upload error onto the services taxonomy.
func Classify(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusForbidden && hasQuotaReason(gerr):
			return services.Wrap(services.ErrQuotaExceeded, "youtube", "upload", gerr.Message, err)
		case retriableStatus[gerr.Code]:
			return services.Wrap(services.ErrTransient, "youtube", "upload", fmt.Sprintf("http %d", gerr.Code), err)
		default:
			return services.Wrap(services.ErrFatal, "youtube", "upload", fmt.Sprintf("http %d", gerr.Code), err)
		}
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return services.Wrap(services.ErrFatal, "youtube", "refresh token", "token is likely to be expired or revoked", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return services.Wrap(services.ErrTransient, "youtube", "upload", "network", err)
	}
	return services.Wrap(services.ErrFatal, "youtube", "upload", "", err)
}

func hasQuotaReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	// an unexplained 403 during upload is the daily ceiling
	return len(gerr.Errors) == 0
}
