package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"influencer/internal/fileutil"
	"influencer/internal/services"
)

// redirectURL is the loopback address used for the installed-app flow.
const redirectURL = "http://localhost:8080"

// OAuthConfig builds the OAuth client configuration.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
}

// AuthURL is the consent page an operator opens to authorize a channel.
func AuthURL(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("influencer", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it at path.
func Exchange(ctx context.Context, cfg *oauth2.Config, code, path string) error {
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return services.Wrap(services.ErrFatal, "youtube", "exchange code", "", err)
	}
	return SaveToken(path, tok)
}

// LoadToken reads a cached token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "load token",
			path+" missing; run `influencer auth` for this channel", err)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "youtube", "load token", path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "parse token", path, err)
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return services.Wrap(services.ErrStorage, "youtube", "save token", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return services.Wrap(services.ErrStorage, "youtube", "save token", path, err)
	}
	return nil
}

// persistingSource writes refreshed tokens back to disk.
type persistingSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	path string
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := SaveToken(p.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// TokenClient returns an HTTP client authorized by the token cached at path.
func TokenClient(ctx context.Context, cfg *oauth2.Config, path string) (*http.Client, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	src := &persistingSource{
		base: cfg.TokenSource(ctx, tok),
		path: path,
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}
